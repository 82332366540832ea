package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeClock returns a clock that advances one minute per call.
func fakeClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestStore_SaveNew(t *testing.T) {
	s := openTest(t)

	e, err := s.Save("Natal", "natal.json", []byte(`{"planets":[]}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if e.ID == "" {
		t.Error("new entry should get an id")
	}
	if e.OpenedCount != 1 {
		t.Errorf("OpenedCount = %d, want 1", e.OpenedCount)
	}
	if e.Size() != len(`{"planets":[]}`) {
		t.Errorf("Size = %d", e.Size())
	}
	if e.CreatedAt.IsZero() || !e.CreatedAt.Equal(e.OpenedAt) {
		t.Errorf("timestamps = %v / %v", e.CreatedAt, e.OpenedAt)
	}
}

func TestStore_SaveSameSourceUpserts(t *testing.T) {
	s := openTest(t)
	s.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := s.Save("Natal", "natal.json", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.Save("Natal (edited)", "natal.json", []byte(`{"v":2}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("id changed on re-save: %s -> %s", first.ID, second.ID)
	}
	if second.OpenedCount != 2 {
		t.Errorf("OpenedCount = %d, want 2", second.OpenedCount)
	}
	if string(second.Payload) != `{"v":2}` || second.Name != "Natal (edited)" {
		t.Errorf("entry not updated: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at should not change on re-save")
	}
	if !second.OpenedAt.After(first.OpenedAt) {
		t.Error("opened_at should advance on re-save")
	}
}

func TestStore_RefreshKeepsOpenCount(t *testing.T) {
	s := openTest(t)
	s.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := s.Save("Natal", "natal.json", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	for i, payload := range []string{`{"v":2}`, `{"v":3}`} {
		got, err := s.Refresh("Natal", "natal.json", []byte(payload))
		if err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
		if got.ID != first.ID {
			t.Errorf("Refresh %d: id changed %s -> %s", i, first.ID, got.ID)
		}
		if got.OpenedCount != 1 {
			t.Errorf("Refresh %d: OpenedCount = %d, want 1", i, got.OpenedCount)
		}
		if !got.OpenedAt.Equal(first.OpenedAt) {
			t.Errorf("Refresh %d: opened_at moved %v -> %v", i, first.OpenedAt, got.OpenedAt)
		}
		if string(got.Payload) != payload {
			t.Errorf("Refresh %d: payload = %s, want %s", i, got.Payload, payload)
		}
	}
}

func TestStore_RefreshNewSource(t *testing.T) {
	s := openTest(t)

	e, err := s.Refresh("Natal", "natal.json", []byte("{}"))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if e.ID == "" || e.OpenedCount != 1 {
		t.Errorf("entry = %+v, want a new entry opened once", e)
	}
}

func TestStore_Recent(t *testing.T) {
	s := openTest(t)
	s.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, src := range []string{"a.json", "b.json", "c.json"} {
		if _, err := s.Save(src, src, []byte("{}")); err != nil {
			t.Fatalf("Save(%s): %v", src, err)
		}
	}
	// reopening a moves it to the front
	if _, err := s.Save("a.json", "a.json", []byte("{}")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(entries))
	}
	if entries[0].Source != "a.json" || entries[1].Source != "c.json" {
		t.Errorf("order = %s, %s; want a.json, c.json", entries[0].Source, entries[1].Source)
	}
}

func TestStore_GetAndDelete(t *testing.T) {
	s := openTest(t)

	e, err := s.Save("Natal", "natal.json", []byte("{}"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != "natal.json" {
		t.Errorf("Source = %q", got.Source)
	}

	if err := s.Touch(e.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	got, _ = s.Get(e.ID)
	if got.OpenedCount != 2 {
		t.Errorf("OpenedCount after Touch = %d, want 2", got.OpenedCount)
	}

	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	if err := s.Touch("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Touch missing = %v, want ErrNotFound", err)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e, err := s.Save("Natal", "natal.json", []byte("{}"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(e.ID); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
