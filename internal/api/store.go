package api

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/scenery/internal/session"
)

type sceneRecord struct {
	Scene SceneResource
}

// SceneStore keeps parsed scene reports in memory until deleted.
type SceneStore struct {
	mu     sync.Mutex
	scenes map[string]*sceneRecord
}

func NewSceneStore() *SceneStore {
	return &SceneStore{
		scenes: make(map[string]*sceneRecord),
	}
}

func (s *SceneStore) Create(rep *session.Report, size int, now time.Time) SceneResource {
	res := SceneResource{
		ID:        newSceneID(),
		Object:    "scene",
		CreatedAt: now.Unix(),
		Size:      size,
		Report:    rep,
	}

	s.mu.Lock()
	s.scenes[res.ID] = &sceneRecord{Scene: res}
	s.mu.Unlock()

	return res
}

func (s *SceneStore) Get(id string) (*sceneRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scenes[id]
	return rec, ok
}

// List returns every stored scene, oldest first.
func (s *SceneStore) List() []SceneResource {
	s.mu.Lock()
	out := make([]SceneResource, 0, len(s.scenes))
	for _, rec := range s.scenes {
		out = append(out, rec.Scene)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b SceneResource) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (s *SceneStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenes[id]; !ok {
		return false
	}
	delete(s.scenes, id)
	return true
}

func (s *SceneStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scenes)
}

func newSceneID() string {
	return "scene_" + uuid.NewString()
}
