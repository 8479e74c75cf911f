package web

import (
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-inferform/pkg/media"
)

// artifactStore keeps call outputs addressable by id in insertion order.
type artifactStore struct {
	mu    sync.Mutex
	max   int
	order []string
	files map[string]*media.TempFile
}

func newArtifactStore(max int) *artifactStore {
	return &artifactStore{max: max, files: make(map[string]*media.TempFile)}
}

// add registers file and returns its id. When the retention limit is
// exceeded the oldest artifacts are released.
func (s *artifactStore) add(file *media.TempFile) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.files[id] = file
	s.order = append(s.order, id)
	var evicted []*media.TempFile
	for s.max > 0 && len(s.order) > s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		evicted = append(evicted, s.files[oldest])
		delete(s.files, oldest)
	}
	s.mu.Unlock()
	return id, media.ReleaseAll(evicted...)
}

func (s *artifactStore) get(id string) (*media.TempFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[id]
	return file, ok
}

func (s *artifactStore) release(id string) (bool, error) {
	s.mu.Lock()
	file, ok := s.files[id]
	if ok {
		delete(s.files, id)
		for i, candidate := range s.order {
			if candidate == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, file.Release()
}

func (s *artifactStore) releaseAll() error {
	s.mu.Lock()
	files := make([]*media.TempFile, 0, len(s.files))
	for _, id := range s.order {
		files = append(files, s.files[id])
	}
	s.files = make(map[string]*media.TempFile)
	s.order = nil
	s.mu.Unlock()
	return media.ReleaseAll(files...)
}

func (s *artifactStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
