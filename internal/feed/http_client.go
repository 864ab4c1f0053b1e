package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultRateLimit paces outbound calls so concurrent loops respect the
	// provider's limits.
	defaultRateLimit = 2.0 // requests per second
	defaultBurst     = 1
)

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewHTTPClient creates a feed client for the given provider base URL.
func NewHTTPClient(baseURL, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// rawMatch is the provider's loose match payload. Field presence varies by
// endpoint, so everything optional is a pointer.
type rawMatch struct {
	ID                string  `json:"id"`
	StatusCode        string  `json:"status"`
	HomeTeam          *string `json:"home_team"`
	AwayTeam          *string `json:"away_team"`
	Competition       *string `json:"competition"`
	SeasonID          *string `json:"season_id"`
	HomeScore         *int    `json:"home_score"`
	AwayScore         *int    `json:"away_score"`
	Minute            *int    `json:"minute"`
	ScheduledKickoff  *int64  `json:"scheduled_kickoff_ts"`
	FirstHalfKickoff  *int64  `json:"first_half_kickoff_ts"`
	SecondHalfKickoff *int64  `json:"second_half_kickoff_ts"`
}

type rawStandingRow struct {
	TeamName     string `json:"team_name"`
	Position     int    `json:"position"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Points       int    `json:"points"`
}

// ListLiveMatches fetches the provider's live match list.
func (c *HTTPClient) ListLiveMatches(ctx context.Context) ([]MatchSnapshot, error) {
	var raws []rawMatch
	if err := c.get(ctx, "/v1/matches/live", &raws); err != nil {
		return nil, err
	}

	snapshots := make([]MatchSnapshot, 0, len(raws))
	for _, raw := range raws {
		snap, err := normalizeMatch(raw)
		if err != nil {
			// One malformed entry must not poison the batch.
			log.Printf("[Feed] Skipping malformed live entry %q: %v", raw.ID, err)
			continue
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, nil
}

// GetMatchDetail fetches a single fixture by its external id.
func (c *HTTPClient) GetMatchDetail(ctx context.Context, externalID string) (*MatchSnapshot, error) {
	var raw rawMatch
	if err := c.get(ctx, "/v1/matches/"+externalID, &raw); err != nil {
		return nil, err
	}
	return normalizeMatch(raw)
}

// GetSeasonStandings fetches the standings table for a season.
func (c *HTTPClient) GetSeasonStandings(ctx context.Context, seasonID string) ([]StandingRow, error) {
	var raws []rawStandingRow
	if err := c.get(ctx, "/v1/seasons/"+seasonID+"/standings", &raws); err != nil {
		return nil, err
	}

	rows := make([]StandingRow, 0, len(raws))
	for _, raw := range raws {
		if raw.TeamName == "" {
			log.Printf("[Feed] Skipping standings row without team name (season %s)", seasonID)
			continue
		}
		rows = append(rows, StandingRow{
			SeasonID:     seasonID,
			TeamName:     raw.TeamName,
			Position:     raw.Position,
			Played:       raw.Played,
			Wins:         raw.Wins,
			Draws:        raw.Draws,
			Losses:       raw.Losses,
			GoalsFor:     raw.GoalsFor,
			GoalsAgainst: raw.GoalsAgainst,
			Points:       raw.Points,
		})
	}
	return rows, nil
}

// get performs one paced, bounded GET against the provider.
func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMatchNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("feed API error: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizeMatch validates one raw payload and converts it to the snapshot
// type the core consumes.
func normalizeMatch(raw rawMatch) (*MatchSnapshot, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("missing external id")
	}

	status, err := MapProviderStatus(raw.StatusCode)
	if err != nil {
		return nil, err
	}

	snap := &MatchSnapshot{
		ExternalID:        raw.ID,
		Status:            status,
		HomeTeam:          raw.HomeTeam,
		AwayTeam:          raw.AwayTeam,
		Competition:       raw.Competition,
		SeasonID:          raw.SeasonID,
		HomeScore:         raw.HomeScore,
		AwayScore:         raw.AwayScore,
		Minute:            raw.Minute,
		ScheduledKickoff:  unixToTime(raw.ScheduledKickoff),
		FirstHalfKickoff:  unixToTime(raw.FirstHalfKickoff),
		SecondHalfKickoff: unixToTime(raw.SecondHalfKickoff),
	}

	if snap.HomeScore != nil && *snap.HomeScore < 0 {
		return nil, fmt.Errorf("negative home score %d", *snap.HomeScore)
	}
	if snap.AwayScore != nil && *snap.AwayScore < 0 {
		return nil, fmt.Errorf("negative away score %d", *snap.AwayScore)
	}

	return snap, nil
}

func unixToTime(ts *int64) *time.Time {
	if ts == nil || *ts <= 0 {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}
