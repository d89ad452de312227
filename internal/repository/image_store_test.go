package repository

import (
	"sync"
	"testing"

	"go-vision-console/pkg/models"
)

func staged(name string, data string) models.StagedImage {
	return models.StagedImage{
		Filename: name,
		File:     models.ImageFile{Name: name, Data: []byte(data)},
	}
}

func filenames(entries []models.StagedImage) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Filename)
	}
	return names
}

func TestImageStore_AddAndEntries(t *testing.T) {
	store := NewImageStore()
	if !store.IsEmpty() {
		t.Fatal("Expected new store to be empty")
	}

	store.Add(staged("a.png", "1"))
	store.Add(staged("b.png", "2"))
	store.Add(staged("c.png", "3"))

	if store.IsEmpty() || store.Len() != 3 {
		t.Fatalf("Expected 3 staged images, got %d", store.Len())
	}

	got := filenames(store.Entries())
	want := []string{"a.png", "b.png", "c.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected entry %d to be %s, got %s", i, want[i], got[i])
		}
	}
}

func TestImageStore_ReplaceKeepsPosition(t *testing.T) {
	store := NewImageStore()
	store.Add(staged("a.png", "old"))
	store.Add(staged("b.png", "2"))
	store.Add(staged("a.png", "new"))

	if store.Len() != 2 {
		t.Fatalf("Expected replacement not to grow the store, got %d entries", store.Len())
	}

	entries := store.Entries()
	if entries[0].Filename != "a.png" || string(entries[0].File.Data) != "new" {
		t.Errorf("Expected a.png to be replaced in place, got %+v", entries[0])
	}
}

func TestImageStore_Remove(t *testing.T) {
	store := NewImageStore()
	store.Add(staged("a.png", "1"))
	store.Add(staged("b.png", "2"))

	store.Remove("missing.png")
	if store.Len() != 2 {
		t.Errorf("Expected removing an unknown name to be a no-op, got %d entries", store.Len())
	}

	store.Remove("a.png")
	if _, ok := store.Get("a.png"); ok {
		t.Error("Expected a.png to be removed")
	}
	if got := filenames(store.Entries()); len(got) != 1 || got[0] != "b.png" {
		t.Errorf("Expected only b.png to remain, got %v", got)
	}

	store.Clear()
	if !store.IsEmpty() {
		t.Error("Expected store to be empty after Clear")
	}
}

func TestImageStore_EntriesIsSnapshot(t *testing.T) {
	store := NewImageStore()
	store.Add(staged("a.png", "1"))
	store.Add(staged("b.png", "2"))

	snapshot := store.Entries()
	store.Remove("a.png")

	if len(snapshot) != 2 {
		t.Errorf("Expected snapshot to be unaffected by later removals, got %d entries", len(snapshot))
	}
}

func TestImageStore_ConcurrentAccess(t *testing.T) {
	store := NewImageStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i%5)) + ".png"
			store.Add(staged(name, "x"))
			_ = store.Entries()
			if i%3 == 0 {
				store.Remove(name)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() > 5 {
		t.Errorf("Expected at most 5 distinct filenames, got %d", store.Len())
	}
}
