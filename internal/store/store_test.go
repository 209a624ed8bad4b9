package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dashgrid/internal/schema"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "dash.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func servers(t *testing.T) *schema.Dashboard {
	t.Helper()
	doc, err := schema.ReadFile("../schema/testdata/servers.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return doc
}

func TestStore_SaveAssignsUIDAndVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := servers(t)

	first, err := s.Save(ctx, doc, "initial")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if doc.UID == "" || first.UID != doc.UID {
		t.Fatalf("Expected a UID written back to the document, got %q", doc.UID)
	}
	if first.Version != 1 || first.LayoutKind != schema.KindGridLayout {
		t.Errorf("Expected version 1 of a GridLayout, got %d %s", first.Version, first.LayoutKind)
	}

	doc.Title = "Servers (prod)"
	second, err := s.Save(ctx, doc, "rename")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if second.Version != 2 || second.Title != "Servers (prod)" {
		t.Errorf("Expected version 2 with the new title, got %d %q", second.Version, second.Title)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("Expected created kept and updated advanced, got %v and %v", second.CreatedAt, second.UpdatedAt)
	}
}

func TestStore_SaveUnchangedIsNoOp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := servers(t)

	if _, err := s.Save(ctx, doc, "initial"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec, err := s.Save(ctx, doc, "again")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("Expected version to stay 1, got %d", rec.Version)
	}
	history, err := s.History(ctx, doc.UID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected 1 revision, got %d", len(history))
	}
}

func TestStore_GetAndGetVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := servers(t)

	if _, err := s.Save(ctx, doc, "initial"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc.Title = "Renamed"
	if _, err := s.Save(ctx, doc, "rename"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	latest, rec, err := s.Get(ctx, doc.UID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if latest.Title != "Renamed" || rec.Version != 2 {
		t.Errorf("Expected the renamed version 2, got %q %d", latest.Title, rec.Version)
	}
	if len(latest.Elements) != 3 || latest.Layout.Grid == nil {
		t.Errorf("Expected the full document back, got %d elements", len(latest.Elements))
	}

	old, err := s.GetVersion(ctx, doc.UID, 1)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}
	if old.Title != "Servers" {
		t.Errorf("Expected original title, got %q", old.Title)
	}

	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetVersion(ctx, doc.UID, 9); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b := servers(t)
	b.Title = "Beta"
	a := servers(t)
	a.Title = "Alpha"
	for _, doc := range []*schema.Dashboard{b, a} {
		if _, err := s.Save(ctx, doc, ""); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].Title != "Alpha" || records[1].Title != "Beta" {
		t.Fatalf("Expected Alpha then Beta, got %+v", records)
	}

	if err := s.Delete(ctx, a.UID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.History(ctx, a.UID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected history gone, got %v", err)
	}
	if err := s.Delete(ctx, a.UID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Diff(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := servers(t)

	if _, err := s.Save(ctx, doc, "initial"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc.Title = "Renamed"
	if _, err := s.Save(ctx, doc, "rename"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	diff, err := s.Diff(ctx, doc.UID, 1, 2)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(diff, "-title: Servers") || !strings.Contains(diff, "+title: Renamed") {
		t.Errorf("Expected the title change in the diff, got:\n%s", diff)
	}

	same, err := s.Diff(ctx, doc.UID, 2, 2)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if same != "" {
		t.Errorf("Expected an empty diff, got:\n%s", same)
	}
}
