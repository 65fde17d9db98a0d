package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nlogo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.Save(ctx, "square", "REPEAT 4 [ FD 100 RT 90 ]"); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load(ctx, "square")
	if err != nil {
		t.Fatal(err)
	}
	if p.Source != "REPEAT 4 [ FD 100 RT 90 ]" {
		t.Errorf("unexpected source %q", p.Source)
	}
	if p.Fingerprint != Fingerprint(p.Source) || len(p.Fingerprint) != 64 {
		t.Errorf("unexpected fingerprint %q", p.Fingerprint)
	}

	// Saving again replaces the text.
	if err := s.Save(ctx, "square", "FD 1"); err != nil {
		t.Fatal(err)
	}
	p, err = s.Load(ctx, "square")
	if err != nil {
		t.Fatal(err)
	}
	if p.Source != "FD 1" || p.Fingerprint != Fingerprint("FD 1") {
		t.Errorf("save did not replace: %+v", p)
	}
}

func TestSaveEmptyName(t *testing.T) {
	s := openTest(t)
	if err := s.Save(context.Background(), "  ", "FD 1"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestNamesTrimmed(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.Save(ctx, " sq ", "FD 1"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{" sq ", "sq", "sq\t"} {
		if _, err := s.Load(ctx, name); err != nil {
			t.Errorf("load %q: %v", name, err)
		}
	}
	if err := s.Delete(ctx, " sq "); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "sq"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTest(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSorted(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, name := range []string{"star", "flower", "square"} {
		if err := s.Save(ctx, name, "FD 1"); err != nil {
			t.Fatal(err)
		}
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"flower", "square", "star"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}
}

func TestDeleteRestorePurge(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for _, name := range []string{"a", "b"} {
		if err := s.Save(ctx, name, "FD 1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted program must not load, got %v", err)
	}
	names, _ := s.List(ctx)
	if len(names) != 1 || names[0] != "b" {
		t.Errorf("expected [b], got %v", names)
	}

	// Saving a deleted name revives it in place.
	if err := s.Save(ctx, "a", "RT 1"); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load(ctx, "a")
	if err != nil || p.Source != "RT 1" {
		t.Fatalf("expected revived program, got %+v %v", p, err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Purge(ctx, base)
	if err != nil || n != 0 {
		t.Errorf("nothing is older than the cutoff yet: n=%d err=%v", n, err)
	}
	n, err = s.Purge(ctx, base.Add(time.Minute))
	if err != nil || n != 2 {
		t.Errorf("expected 2 purged rows, got n=%d err=%v", n, err)
	}

	// A purged name can be saved fresh.
	if err := s.Save(ctx, "a", "PU"); err != nil {
		t.Fatal(err)
	}
}
