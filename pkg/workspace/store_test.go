package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/nextstep/pkg/errors"
)

func TestStores(t *testing.T) {
	file, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			testStore(t, s)
		})
	}
}

// testStore exercises a Store implementation. The Redis and Mongo stores
// run it from the integration tests.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	recs := []Record{
		{ID: "b1", Name: "Beta", Document: []byte(`{"nodes":[],"edges":[]}`), SavedAt: now},
		{ID: "a1", Name: "Alpha", Document: []byte(`{"nodes":[],"edges":[[]]}`), SavedAt: now},
	}
	for _, r := range recs {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error: %v", r.ID, err)
		}
	}

	got, err := s.Load(ctx, "b1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Name != "Beta" || string(got.Document) != string(recs[0].Document) || !got.SavedAt.Equal(now) {
		t.Errorf("Load() = %+v, want %+v", got, recs[0])
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Alpha" || list[1].Name != "Beta" {
		t.Errorf("List() = %+v, want Alpha then Beta", list)
	}

	recs[0].Name = "Beta v2"
	if err := s.Save(ctx, recs[0]); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx, "b1"); got.Name != "Beta v2" {
		t.Errorf("Load() after overwrite name = %q, want %q", got.Name, "Beta v2")
	}

	if err := s.Delete(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "b1"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load() after Delete error = %v, want %s", err, errors.ErrCodeNotFound)
	}
	if err := s.Delete(ctx, "b1"); err != nil {
		t.Errorf("Delete() twice error = %v, want nil", err)
	}
	_ = s.Delete(ctx, "a1")
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	err := s.Save(context.Background(), Record{ID: "../escape", Document: []byte(`{}`)})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Save(../escape) error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}
