// Package api serves scene inspection over HTTP. Uploaded containers are
// parsed by a fresh session each and the resulting reports are kept in
// memory until deleted.
package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/session"
	"github.com/samcharles93/scenery/pkg/scene"
)

const defaultUploadName = "upload.scene"

// Config configures a Server.
type Config struct {
	Session session.Config

	// MaxUploadBytes caps request bodies; zero means no limit.
	MaxUploadBytes int64

	Logger logger.Logger
}

type Server struct {
	store *SceneStore
	cfg   Config
	log   logger.Logger
	clock func() time.Time
}

func NewServer(store *SceneStore, cfg Config) *Server {
	if store == nil {
		store = NewSceneStore()
	}
	if cfg.Session.Registry == nil {
		cfg.Session.Registry = session.NewRegistry()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = log
	}
	return &Server{
		store: store,
		cfg:   cfg,
		log:   log.With("component", "api"),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/scenes", s.handleCreateScene)
	e.GET("/v1/scenes", s.handleListScenes)
	e.GET("/v1/scenes/:id", s.handleGetScene)
	e.DELETE("/v1/scenes/:id", s.handleDeleteScene)
	e.GET("/v1/asset-types", s.handleAssetTypes)
}

// CreateSceneReq asks the server to parse a container from its own
// asset root instead of the request body.
type CreateSceneReq struct {
	Path string `json:"path"`
}

func (s *Server) handleCreateScene(c *echo.Context) error {
	req := c.Request()
	name, data, err := s.sceneInput(c)
	switch {
	case errors.Is(err, ErrTooLarge):
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), "body", "")
	case errors.Is(err, ErrInvalidRequest):
		return writeBadRequest(c, err.Error())
	case err != nil:
		return writeError(c, http.StatusNotFound, "not_found_error", err.Error(), "path", "")
	}

	rep, err := session.Run(req.Context(), s.cfg.Session, name, data)
	if err != nil {
		var se *scene.Error
		if errors.As(err, &se) {
			s.log.Info("rejected scene", "name", name, "code", se.Code)
			return writeJSON(c, http.StatusUnprocessableEntity, InvalidScene{
				Error: ResponseError{
					Message: se.Message,
					Type:    "invalid_scene_error",
					Code:    string(se.Code),
				},
				Report: rep,
			})
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	res := s.store.Create(rep, len(data), s.clock())
	s.log.Info("parsed scene", "id", res.ID, "name", name,
		"dependencies", len(rep.Dependencies), "errors", len(rep.Errors))
	return writeJSON(c, http.StatusCreated, res)
}

// sceneInput returns the container to parse: the raw request body, or for a
// JSON request the file named by its path, loaded through the session's
// fetcher.
func (s *Server) sceneInput(c *echo.Context) (string, []byte, error) {
	req := c.Request()
	if isJSON(req.Header.Get(echo.HeaderContentType)) {
		body, err := decodeJSON[CreateSceneReq](req.Body)
		if err != nil {
			return "", nil, newInvalidRequest(fmt.Sprintf("decode request: %v", err))
		}
		path := strings.TrimSpace(body.Path)
		if path == "" {
			return "", nil, newInvalidRequest("path is required")
		}
		if s.cfg.Session.Fetcher == nil {
			return "", nil, newInvalidRequest("server has no asset root")
		}
		data, err := s.cfg.Session.Fetcher.Fetch(req.Context(), path, asset.Range{})
		if err != nil {
			return "", nil, fmt.Errorf("load %s: %w", path, err)
		}
		if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
			return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, s.cfg.MaxUploadBytes)
		}
		return path, data, nil
	}

	data, err := readBody(req.Body, s.cfg.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return "", nil, err
		}
		return "", nil, newInvalidRequest(fmt.Sprintf("read body: %v", err))
	}
	if len(data) == 0 {
		return "", nil, newInvalidRequest("request body is empty")
	}
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		name = defaultUploadName
	}
	return name, data, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == echo.MIMEApplicationJSON
}

func (s *Server) handleListScenes(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, SceneList{
		Object: "list",
		Data:   s.store.List(),
	})
}

func (s *Server) handleGetScene(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "scene not found")
	}
	rec, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "scene not found")
	}
	return writeJSON(c, http.StatusOK, rec.Scene)
}

func (s *Server) handleDeleteScene(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "scene not found")
	}
	return writeJSON(c, http.StatusOK, DeleteSceneResp{
		ID:      id,
		Object:  "scene",
		Deleted: true,
	})
}

func (s *Server) handleAssetTypes(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, AssetTypeList{
		Object: "list",
		Data:   AssetTypes(s.cfg.Session.Registry.Types()),
	})
}

// AssetTypes lists the built-in types followed by the given extension types.
func AssetTypes(extensions []scene.AssetType) []AssetType {
	builtin := scene.BuiltinAssetTypes()
	out := make([]AssetType, 0, len(builtin)+len(extensions))
	for _, t := range builtin {
		out = append(out, AssetType{ID: uint8(t), Name: t.String(), Builtin: true})
	}
	for _, t := range extensions {
		if t < scene.FirstExtensionAsset {
			continue
		}
		out = append(out, AssetType{ID: uint8(t), Name: t.String()})
	}
	return out
}
