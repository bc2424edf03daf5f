package service

import (
	"errors"
	"testing"
	"time"
)

func TestDiveLogServiceCreateDefaults(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "logger@example.com")

	svc := NewDiveLogService(gdb)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }

	spotID := spotIDBySlug(t, gdb, "moalboal-sardine-run")
	entry, err := svc.Create(user.ID, DiveLogInput{SpotID: &spotID, EntryTime: "7:05", MaxDepth: floatPtr(18)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if entry.Date != "2024-07-01" {
		t.Fatalf("expected default date, got %s", entry.Date)
	}
	if entry.ActivityType != "skin" {
		t.Fatalf("expected default activity skin, got %s", entry.ActivityType)
	}
	if entry.Country != "필리핀" || entry.SpotName != "모알보알 정어리 떼" {
		t.Fatalf("expected spot details to be filled, got %q/%q", entry.Country, entry.SpotName)
	}
	if entry.EntryTime != "07:05" {
		t.Fatalf("expected normalized entry time, got %s", entry.EntryTime)
	}
}

func TestDiveLogServiceValidation(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "invalid@example.com")
	svc := NewDiveLogService(gdb)

	cases := []struct {
		name  string
		input DiveLogInput
		want  error
	}{
		{name: "bad date", input: DiveLogInput{Date: "2024/01/01"}, want: ErrDiveLogInvalid},
		{name: "bad time", input: DiveLogInput{EntryTime: "25:00"}, want: ErrDiveLogInvalid},
		{name: "bad activity", input: DiveLogInput{ActivityType: "snorkel"}, want: ErrDiveLogInvalid},
		{name: "negative depth", input: DiveLogInput{MaxDepth: floatPtr(-1)}, want: ErrDiveLogInvalid},
		{name: "negative time", input: DiveLogInput{DiveTime: intPtr(-5)}, want: ErrDiveLogInvalid},
		{name: "unknown spot", input: DiveLogInput{SpotID: func() *uint { id := uint(999); return &id }()}, want: ErrSpotNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(user.ID, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDiveLogServiceOwnershipAndStats(t *testing.T) {
	gdb := setupServiceDB(t)
	owner := createTestUser(t, gdb, "owner@example.com")
	other := createTestUser(t, gdb, "other@example.com")
	svc := NewDiveLogService(gdb)

	first, err := svc.Create(owner.ID, DiveLogInput{Date: "2024-01-02", MaxDepth: floatPtr(12), DiveTime: intPtr(40)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(owner.ID, DiveLogInput{Date: "2024-03-05", ActivityType: "scuba", MaxDepth: floatPtr(31.5), DiveTime: intPtr(55)}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	logs, err := svc.List(owner.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(logs) != 2 || logs[0].Date != "2024-03-05" {
		t.Fatalf("expected newest first, got %+v", logs)
	}

	stats, err := svc.Stats(owner.ID)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalDives != 2 || stats.MaxDepth != 31.5 || stats.TotalTime != 95 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, err := svc.Update(other.ID, first.ID, DiveLogInput{Date: "2024-01-03"}); !errors.Is(err, ErrDiveLogNotFound) {
		t.Fatalf("expected ErrDiveLogNotFound for other user, got %v", err)
	}
	if err := svc.Delete(other.ID, first.ID); !errors.Is(err, ErrDiveLogNotFound) {
		t.Fatalf("expected ErrDiveLogNotFound for other user, got %v", err)
	}

	updated, err := svc.Update(owner.ID, first.ID, DiveLogInput{Date: "2024-01-03", Memo: "  calm  "})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Date != "2024-01-03" || updated.Memo != "calm" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	entries, err := svc.Entries(owner.ID)
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if err := svc.Delete(owner.ID, first.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(owner.ID, first.ID); !errors.Is(err, ErrDiveLogNotFound) {
		t.Fatalf("expected deleted log to be gone, got %v", err)
	}
}

func TestPersonalSpotServiceCRUD(t *testing.T) {
	gdb := setupServiceDB(t)
	owner := createTestUser(t, gdb, "spots@example.com")
	other := createTestUser(t, gdb, "intruder@example.com")
	svc := NewPersonalSpotService(gdb)

	spot, err := svc.Create(owner.ID, PersonalSpotInput{Name: "비밀 포인트", Lat: 33.2, Lng: 126.5})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if spot.Difficulty != "beginner" || len(spot.ActivityTypes) != 1 || spot.ActivityTypes[0] != "skin" {
		t.Fatalf("unexpected defaults %+v", spot)
	}

	if _, err := svc.Create(owner.ID, PersonalSpotInput{Name: "x", Lat: 120}); !errors.Is(err, ErrPersonalSpotInvalid) {
		t.Fatalf("expected ErrPersonalSpotInvalid, got %v", err)
	}
	if _, err := svc.Create(owner.ID, PersonalSpotInput{Name: "x", Difficulty: "expert"}); !errors.Is(err, ErrPersonalSpotInvalid) {
		t.Fatalf("expected ErrPersonalSpotInvalid, got %v", err)
	}

	updated, err := svc.Update(owner.ID, spot.ID, PersonalSpotInput{Name: "비밀 포인트", Lat: 33.2, Lng: 126.5, Difficulty: "advanced", ActivityTypes: []string{"scuba", "skin"}})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Difficulty != "advanced" || len(updated.ActivityTypes) != 2 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := svc.Get(other.ID, spot.ID); !errors.Is(err, ErrPersonalSpotNotFound) {
		t.Fatalf("expected ErrPersonalSpotNotFound, got %v", err)
	}
	if err := svc.Delete(owner.ID, spot.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	spots, err := svc.List(owner.ID)
	if err != nil || len(spots) != 0 {
		t.Fatalf("expected no spots, got %d (%v)", len(spots), err)
	}
}
