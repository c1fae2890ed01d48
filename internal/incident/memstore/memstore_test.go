package memstore

import (
	"context"
	"testing"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

func seed(t *testing.T, s *Store, text string, status incident.Status) *incident.Incident {
	t.Helper()
	created, err := s.Create(context.Background(), &incident.Incident{
		Text:        text,
		Description: "desc",
		Status:      status,
		Source:      "test",
	})
	if err != nil {
		t.Fatalf("Create(%q) = %v", text, err)
	}
	return created
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	s := New()
	first := seed(t, s, "a", incident.StatusNew)
	second := seed(t, s, "b", incident.StatusNew)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("IDs = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || second.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}
	if second.CreatedAt.Before(first.CreatedAt) {
		t.Error("CreatedAt not monotonically non-decreasing with insertion order")
	}
}

func TestCreate_DoesNotShareCallerPointer(t *testing.T) {
	t.Parallel()

	s := New()
	in := &incident.Incident{Text: "a", Description: "d", Status: incident.StatusNew, Source: "s"}
	created, err := s.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}

	in.Text = "mutated"
	got, _, _ := s.Get(context.Background(), created.ID)
	if got.Text != "a" {
		t.Errorf("stored Text = %q, want %q (caller mutation leaked)", got.Text, "a")
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	s := New()
	inc, ok, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get() = %v, want nil error", err)
	}
	if ok || inc != nil {
		t.Errorf("Get() = (%v, %v), want (nil, false)", inc, ok)
	}
}

func TestList_OrderedNewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	for _, text := range []string{"first", "second", "third"} {
		seed(t, s, text, incident.StatusNew)
	}

	got, err := s.List(context.Background(), incident.Filter{Limit: 100})
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.CreatedAt.After(prev.CreatedAt) {
			t.Fatalf("ordering violated at %d: %v before %v", i, prev.CreatedAt, cur.CreatedAt)
		}
		if cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID > prev.ID {
			t.Fatalf("ID tiebreak violated at %d: %d before %d", i, prev.ID, cur.ID)
		}
	}
	if got[0].Text != "third" {
		t.Errorf("newest = %q, want %q", got[0].Text, "third")
	}
}

func TestList_StatusFilter(t *testing.T) {
	t.Parallel()

	s := New()
	seed(t, s, "open issue", incident.StatusNew)
	closed := seed(t, s, "done issue", incident.StatusClosed)
	seed(t, s, "another open", incident.StatusNew)

	status := incident.StatusClosed
	got, err := s.List(context.Background(), incident.Filter{Status: &status, Limit: 100})
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ID != closed.ID {
		t.Errorf("ID = %d, want %d", got[0].ID, closed.ID)
	}
}

func TestList_Pagination(t *testing.T) {
	t.Parallel()

	s := New()
	for i := 0; i < 5; i++ {
		seed(t, s, "inc", incident.StatusNew)
	}

	tests := []struct {
		name    string
		offset  int
		limit   int
		wantLen int
	}{
		{"first page", 0, 2, 2},
		{"second page", 2, 2, 2},
		{"tail", 4, 2, 1},
		{"offset past end", 10, 2, 0},
		{"no limit bound", 0, 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.List(context.Background(), incident.Filter{Offset: tt.offset, Limit: tt.limit})
			if err != nil {
				t.Fatalf("List() = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestList_EmptyIsEmptySlice(t *testing.T) {
	t.Parallel()

	s := New()
	got, err := s.List(context.Background(), incident.Filter{Limit: 100})
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if got == nil {
		t.Error("List() = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestUpdate_SparseFields(t *testing.T) {
	t.Parallel()

	s := New()
	created := seed(t, s, "original", incident.StatusNew)

	status := incident.StatusClosed
	updated, ok, err := s.Update(context.Background(), created.ID, incident.Patch{Status: &status})
	if err != nil || !ok {
		t.Fatalf("Update() = (%v, %v), want found", err, ok)
	}

	if updated.Status != incident.StatusClosed {
		t.Errorf("Status = %q, want %q", updated.Status, incident.StatusClosed)
	}
	if updated.Text != "original" {
		t.Errorf("Text = %q, want untouched %q", updated.Text, "original")
	}
	if updated.Description != "desc" {
		t.Errorf("Description = %q, want untouched %q", updated.Description, "desc")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt modified by update")
	}
}

func TestUpdate_AllFields(t *testing.T) {
	t.Parallel()

	s := New()
	created := seed(t, s, "original", incident.StatusNew)

	text := "new text"
	desc := "new desc"
	status := incident.StatusInProgress
	source := "pager"
	updated, ok, err := s.Update(context.Background(), created.ID, incident.Patch{
		Text:        &text,
		Description: &desc,
		Status:      &status,
		Source:      &source,
	})
	if err != nil || !ok {
		t.Fatalf("Update() = (%v, %v), want found", err, ok)
	}
	if updated.Text != text || updated.Description != desc || updated.Status != status || updated.Source != source {
		t.Errorf("Update() = %+v, fields not applied", updated)
	}
	if updated.ID != created.ID {
		t.Errorf("ID changed: %d -> %d", created.ID, updated.ID)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	s := New()
	text := "x"
	inc, ok, err := s.Update(context.Background(), 999999, incident.Patch{Text: &text})
	if err != nil {
		t.Fatalf("Update() = %v, want nil error", err)
	}
	if ok || inc != nil {
		t.Errorf("Update() = (%v, %v), want (nil, false)", inc, ok)
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	s := New()
	seed(t, s, "a", incident.StatusNew)
	seed(t, s, "b", incident.StatusNew)
	seed(t, s, "c", incident.StatusClosed)

	counts, err := s.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus() = %v", err)
	}
	if counts[incident.StatusNew] != 2 {
		t.Errorf("new = %d, want 2", counts[incident.StatusNew])
	}
	if counts[incident.StatusClosed] != 1 {
		t.Errorf("closed = %d, want 1", counts[incident.StatusClosed])
	}
	if counts[incident.StatusInProgress] != 0 {
		t.Errorf("in_progress = %d, want 0", counts[incident.StatusInProgress])
	}
}
