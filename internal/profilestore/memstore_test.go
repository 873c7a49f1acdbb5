package profilestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxtools/gobark/internal/profilestore"
)

func TestMemStore_SaveGet(t *testing.T) {
	t.Parallel()
	s := profilestore.NewMemStore()
	ctx := context.Background()

	rec := &profilestore.Record{Name: "alice", Pitch: 0.3, Tempo: 150}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Errorf("save did not fill ID/CreatedAt: %+v", rec)
	}

	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pitch != 0.3 || got.Tempo != 150 {
		t.Errorf("record = %+v", got)
	}
}

func TestMemStore_SaveReplaces(t *testing.T) {
	t.Parallel()
	s := profilestore.NewMemStore()
	ctx := context.Background()

	if err := s.Save(ctx, &profilestore.Record{Name: "alice", Tempo: 100}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, &profilestore.Record{Name: "alice", Tempo: 180}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Tempo != 180 {
		t.Errorf("tempo = %v, want 180 after replace", got.Tempo)
	}
}

func TestMemStore_GetNotFound(t *testing.T) {
	t.Parallel()
	s := profilestore.NewMemStore()
	_, err := s.Get(context.Background(), "ghost")
	if !errors.Is(err, profilestore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMemStore_ListOrdered(t *testing.T) {
	t.Parallel()
	s := profilestore.NewMemStore()
	ctx := context.Background()
	for _, name := range []string{"carol", "alice", "bob"} {
		if err := s.Save(ctx, &profilestore.Record{Name: name}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	recs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(recs) != len(want) {
		t.Fatalf("count = %d, want %d", len(recs), len(want))
	}
	for i, name := range want {
		if recs[i].Name != name {
			t.Errorf("recs[%d].Name = %q, want %q", i, recs[i].Name, name)
		}
	}
}

func TestMemStore_Delete(t *testing.T) {
	t.Parallel()
	s := profilestore.NewMemStore()
	ctx := context.Background()
	if err := s.Save(ctx, &profilestore.Record{Name: "alice"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice"); !errors.Is(err, profilestore.ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}
	// Deleting a missing profile is not an error.
	if err := s.Delete(ctx, "ghost"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}
