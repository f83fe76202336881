package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ordprov-service/internal/app"
	"ordprov-service/internal/domain"
	"ordprov-service/internal/infra/memory"
)

func TestSubmitRecomputesPercentage(t *testing.T) {
	service := app.NewScoreService(memory.NewScoreRepository())

	// Client claims 100% for a 7/10 round; the hint must be ignored.
	record, err := service.Submit(context.Background(), app.Submission{
		Score:      7,
		Total:      10,
		Percentage: 100,
		Mode:       domain.ModeStora,
	}, domain.Identity{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Percentage != 70 {
		t.Fatalf("expected recomputed 70%%, got %v", record.Percentage)
	}
}

func TestSubmitZeroTotalDoesNotDivide(t *testing.T) {
	service := app.NewScoreService(memory.NewScoreRepository())

	record, err := service.Submit(context.Background(), app.Submission{
		Score: 0,
		Total: 0,
		Mode:  domain.ModeMaraton,
	}, domain.Identity{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Percentage != 0 {
		t.Fatalf("expected 0%% for empty round, got %v", record.Percentage)
	}
}

func TestSubmitRejectsImpossiblePairs(t *testing.T) {
	service := app.NewScoreService(memory.NewScoreRepository())

	for _, sub := range []app.Submission{
		{Score: 5, Total: 3, Mode: domain.ModeSnabb},
		{Score: -1, Total: 3, Mode: domain.ModeSnabb},
		{Score: 1, Total: -1, Mode: domain.ModeSnabb},
	} {
		if _, err := service.Submit(context.Background(), sub, domain.Identity{}); !errors.Is(err, domain.ErrInvalidSubmission) {
			t.Fatalf("submission %+v: expected ErrInvalidSubmission, got %v", sub, err)
		}
	}

	if _, err := service.Submit(context.Background(), app.Submission{Score: 1, Total: 2, Mode: "blixt"}, domain.Identity{}); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestSubmitResolvesIdentity(t *testing.T) {
	cases := []struct {
		name      string
		id        domain.Identity
		guestName string
		wantID    string
		wantName  string
	}{
		{
			name:     "provider session wins",
			id:       domain.Identity{Subject: "sub-1", Name: "Alice", Email: "alice@example.com"},
			wantID:   "sub-1",
			wantName: "Alice",
		},
		{
			name:     "email stands in for subject",
			id:       domain.Identity{Email: "bob@example.com", Name: "Bob"},
			wantID:   "bob@example.com",
			wantName: "Bob",
		},
		{
			name:      "guest name",
			guestName: "Cilla",
			wantID:    domain.GuestUserID,
			wantName:  "Cilla",
		},
		{
			name:     "anonymous fallback",
			wantID:   domain.GuestUserID,
			wantName: domain.AnonymousName,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := app.NewScoreService(memory.NewScoreRepository())
			record, err := service.Submit(context.Background(), app.Submission{
				Score: 1, Total: 2, GuestName: tc.guestName, Mode: domain.ModeSnabb,
			}, tc.id)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if record.UserID != tc.wantID || record.UserName != tc.wantName {
				t.Fatalf("got %s/%s, want %s/%s", record.UserID, record.UserName, tc.wantID, tc.wantName)
			}
		})
	}
}

func TestLeaderboardOrderingAndTieBreaks(t *testing.T) {
	repo := memory.NewScoreRepository()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tick := 0
	service := app.NewScoreServiceWithClock(repo, func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Minute)
	})

	submit := func(name string, score, total int) {
		t.Helper()
		if _, err := service.Submit(context.Background(), app.Submission{
			Score: score, Total: total, GuestName: name, Mode: domain.ModeMaraton,
		}, domain.Identity{}); err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
	}

	submit("halv", 5, 10)    // 50%
	submit("hel", 10, 10)    // 100%, total 10
	submit("stor", 20, 20)   // 100%, total 20 -> above hel
	submit("sen", 10, 10)    // 100%, total 10, later -> below hel
	submit("annan", 40, 40)  // 100%, total 40 -> top despite latest timestamp

	records, err := service.Leaderboard(context.Background(), domain.ModeMaraton)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	wantOrder := []string{"annan", "stor", "hel", "sen", "halv"}
	if len(records) != len(wantOrder) {
		t.Fatalf("expected %d records, got %d", len(wantOrder), len(records))
	}
	for i, name := range wantOrder {
		if records[i].UserName != name {
			t.Fatalf("position %d: got %s, want %s (records %+v)", i, records[i].UserName, name, records)
		}
	}
	for i := 1; i < len(records); i++ {
		if records[i].Percentage > records[i-1].Percentage {
			t.Fatalf("percentages not non-increasing at %d", i)
		}
	}
}

func TestLeaderboardEmptyModeIsEmptyNotError(t *testing.T) {
	service := app.NewScoreService(memory.NewScoreRepository())

	if _, err := service.Submit(context.Background(), app.Submission{
		Score: 3, Total: 10, Mode: domain.ModeMaraton,
	}, domain.Identity{}); err != nil {
		t.Fatal(err)
	}

	records, err := service.Leaderboard(context.Background(), domain.ModeSnabb)
	if err != nil {
		t.Fatalf("expected no error for quiet mode, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty slice, got %#v", records)
	}
}
