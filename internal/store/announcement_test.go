package store

import (
	"testing"
)

func TestAnnouncementRepository_CreateAndList(t *testing.T) {
	repo := newTestStore(t).Announcements()

	entries := []*Announcement{
		{SessionID: "cam-1", Label: "Hello", Confidence: 0.91},
		{SessionID: "cam-2", Label: "Thanks", Confidence: 0.80},
		{SessionID: "cam-1", Label: "Yes", Confidence: 1.0},
	}
	for _, a := range entries {
		if err := repo.Create(a); err != nil {
			t.Fatalf("failed to create announcement: %v", err)
		}
		if a.ID == 0 {
			t.Error("Create should assign an ID")
		}
		if a.CreatedAt.IsZero() {
			t.Error("Create should stamp CreatedAt")
		}
	}

	got, err := repo.ListBySession("cam-1", 0)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 announcements for cam-1, got %d", len(got))
	}
	if got[0].Label != "Yes" || got[1].Label != "Hello" {
		t.Errorf("expected newest first, got %s then %s", got[0].Label, got[1].Label)
	}
	if got[1].Confidence != 0.91 {
		t.Errorf("confidence = %v, want 0.91", got[1].Confidence)
	}

	all, err := repo.ListBySession("", 2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 announcements with limit, got %d", len(all))
	}
}

func TestAnnouncementRepository_CountByLabel(t *testing.T) {
	repo := newTestStore(t).Announcements()

	for _, label := range []string{"Hello", "Hello", "Yes"} {
		if err := repo.Create(&Announcement{SessionID: "s", Label: label, Confidence: 1}); err != nil {
			t.Fatalf("failed to create announcement: %v", err)
		}
	}

	counts, err := repo.CountByLabel()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts["Hello"] != 2 || counts["Yes"] != 1 || len(counts) != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
