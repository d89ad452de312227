package repository

import (
	"sync"

	"go-vision-console/pkg/models"
)

// memoryImageStore keeps staged images in memory for the lifetime of a page session
type memoryImageStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]models.StagedImage
}

// NewImageStore creates an empty in-memory image store
func NewImageStore() ImageStore {
	return &memoryImageStore{
		entries: make(map[string]models.StagedImage),
	}
}

// Add inserts img; re-adding a filename replaces the entry but keeps its position
func (s *memoryImageStore) Add(img models.StagedImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[img.Filename]; !exists {
		s.order = append(s.order, img.Filename)
	}
	s.entries[img.Filename] = img
}

func (s *memoryImageStore) Remove(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[filename]; !exists {
		return
	}
	delete(s.entries, filename)
	for i, name := range s.order {
		if name == filename {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *memoryImageStore) Get(filename string) (models.StagedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.entries[filename]
	return img, ok
}

func (s *memoryImageStore) IsEmpty() bool {
	return s.Len() == 0
}

func (s *memoryImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *memoryImageStore) Entries() []models.StagedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.StagedImage, 0, len(s.order))
	for _, name := range s.order {
		snapshot = append(snapshot, s.entries[name])
	}
	return snapshot
}

func (s *memoryImageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.entries = make(map[string]models.StagedImage)
}
