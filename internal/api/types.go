package api

import "github.com/samcharles93/scenery/internal/session"

// SceneResource is a stored parse result.
type SceneResource struct {
	ID        string          `json:"id"`
	Object    string          `json:"object"`
	CreatedAt int64           `json:"created_at"`
	Size      int             `json:"size"`
	Report    *session.Report `json:"report"`
}

type SceneList struct {
	Object string          `json:"object"`
	Data   []SceneResource `json:"data"`
}

type DeleteSceneResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type AssetType struct {
	ID      uint8  `json:"id"`
	Name    string `json:"name"`
	Builtin bool   `json:"builtin"`
}

type AssetTypeList struct {
	Object string      `json:"object"`
	Data   []AssetType `json:"data"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// InvalidScene is returned when the container header is rejected.
type InvalidScene struct {
	Error  ResponseError   `json:"error"`
	Report *session.Report `json:"report"`
}
