package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"livescore-engine/internal/models"
)

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		code string
		want models.MatchStatus
	}{
		{"NS", models.MatchStatusNotStarted},
		{"1H", models.MatchStatusFirstHalf},
		{"HT", models.MatchStatusHalfTime},
		{"2H", models.MatchStatusSecondHalf},
		{"ET", models.MatchStatusOvertime},
		{"PEN", models.MatchStatusPenaltyShootout},
		{"FT", models.MatchStatusEnded},
		{"AET", models.MatchStatusEnded},
		{"POSTP", models.MatchStatusPostponed},
		{" ht ", models.MatchStatusHalfTime},
	}

	for _, tt := range tests {
		got, err := MapProviderStatus(tt.code)
		if err != nil {
			t.Errorf("MapProviderStatus(%q): %v", tt.code, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MapProviderStatus(%q) = %s, want %s", tt.code, got, tt.want)
		}
	}

	if _, err := MapProviderStatus("LIVE??"); err == nil {
		t.Error("expected unknown status code to error")
	}
}

func TestListLiveMatchesSkipsMalformedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/matches/live" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "m-1", "status": "1H", "home_score": 1, "away_score": 0, "minute": 12, "scheduled_kickoff_ts": 1710000000},
			{"id": "", "status": "1H"},
			{"id": "m-2", "status": "WEIRD"},
			{"id": "m-3", "status": "2H", "home_score": -1},
			{"id": "m-4", "status": "HT"}
		]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", WithRateLimit(1000, 10))

	snaps, err := client.ListLiveMatches(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(snaps) != 2 {
		t.Fatalf("expected the 2 well-formed entries, got %d", len(snaps))
	}
	if snaps[0].ExternalID != "m-1" || snaps[0].Status != models.MatchStatusFirstHalf {
		t.Errorf("unexpected first snapshot: %+v", snaps[0])
	}
	if snaps[0].Minute == nil || *snaps[0].Minute != 12 {
		t.Errorf("minute not normalized: %v", snaps[0].Minute)
	}
	if snaps[0].ScheduledKickoff == nil || snaps[0].ScheduledKickoff.Unix() != 1710000000 {
		t.Errorf("kickoff not normalized: %v", snaps[0].ScheduledKickoff)
	}
	if snaps[1].ExternalID != "m-4" || snaps[1].HomeScore != nil {
		t.Errorf("unexpected second snapshot: %+v", snaps[1])
	}
}

func TestGetMatchDetailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", WithRateLimit(1000, 10))

	_, err := client.GetMatchDetail(context.Background(), "gone")
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestGetMatchDetailSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "m-1", "status": "FT", "home_score": 2, "away_score": 2}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", WithRateLimit(1000, 10))

	snap, err := client.GetMatchDetail(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("api key header = %q", gotKey)
	}
	if snap.Status != models.MatchStatusEnded {
		t.Errorf("status = %s, want ENDED", snap.Status)
	}
}

func TestGetSeasonStandings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/seasons/s-1/standings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"team_name": "Arsenal", "position": 1, "played": 28, "wins": 20, "draws": 4, "losses": 4, "goals_for": 70, "goals_against": 24, "points": 64},
			{"team_name": "", "position": 2}
		]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", WithRateLimit(1000, 10))

	rows, err := client.GetSeasonStandings(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 valid row, got %d", len(rows))
	}
	if rows[0].SeasonID != "s-1" || rows[0].TeamName != "Arsenal" || rows[0].Points != 64 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}
