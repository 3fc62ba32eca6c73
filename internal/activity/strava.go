package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

const (
	defaultAPIBase   = "https://www.strava.com/api/v3"
	defaultOAuthBase = "https://www.strava.com/oauth"

	listPageSize = 200
)

// TokenProvider supplies a valid access token for an athlete. The provider
// is responsible for refreshing expired tokens.
type TokenProvider interface {
	AccessToken(ctx context.Context, athleteID int64) (string, error)
}

// StravaSource implements Source against the Strava v3 API.
type StravaSource struct {
	client  *http.Client
	tokens  TokenProvider
	apiBase string
}

// NewStravaSource creates a Source backed by the Strava API.
func NewStravaSource(client *http.Client, tokens TokenProvider) *StravaSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &StravaSource{client: client, tokens: tokens, apiBase: defaultAPIBase}
}

// SetAPIBase overrides the API base URL, used by tests.
func (s *StravaSource) SetAPIBase(base string) {
	s.apiBase = base
}

// ListSummaryActivities pages through the athlete's activities, oldest first.
func (s *StravaSource) ListSummaryActivities(ctx context.Context, athleteID int64) ([]models.ActivityRecord, error) {
	var all []models.ActivityRecord

	for page := 1; ; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(listPageSize)},
		}

		var batch []stravaActivity
		if err := s.get(ctx, athleteID, "/athlete/activities?"+query.Encode(), &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, a := range batch {
			all = append(all, a.toRecord(athleteID))
		}
		if len(batch) < listPageSize {
			break
		}
	}

	// The API returns newest first; the pipeline wants oldest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// FetchDetailedActivity fetches one activity with best efforts, segment
// efforts and the full polyline.
func (s *StravaSource) FetchDetailedActivity(ctx context.Context, athleteID, activityID int64) (*models.ActivityRecord, error) {
	var a stravaActivity
	if err := s.get(ctx, athleteID, fmt.Sprintf("/activities/%d", activityID), &a); err != nil {
		return nil, err
	}

	rec := a.toRecord(athleteID)
	return &rec, nil
}

func (s *StravaSource) get(ctx context.Context, athleteID int64, path string, out interface{}) error {
	token, err := s.tokens.AccessToken(ctx, athleteID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling upstream API: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Err: fmt.Errorf("upstream returned %d", resp.StatusCode)}
	case http.StatusTooManyRequests:
		return &ThrottledError{RetryAfter: retryAfter(resp)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding upstream response: %w", err)
	}
	return nil
}

// retryAfter reads the Retry-After header, falling back to the time until
// the next quarter-hour since that is when the upstream rate window resets.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	now := time.Now()
	window := 15 * time.Minute
	elapsed := now.Sub(now.Truncate(window))
	return window - elapsed
}

// stravaActivity is the wire shape of an activity in upstream responses.
type stravaActivity struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	SportType        string    `json:"sport_type"`
	StartDate        time.Time `json:"start_date"`
	StartDateLocal   time.Time `json:"start_date_local"`
	MovingTime       int64     `json:"moving_time"`
	ElapsedTime      int64     `json:"elapsed_time"`
	Distance         float64   `json:"distance"`
	TotalElevGain    float64   `json:"total_elevation_gain"`
	AverageHeartrate *float64  `json:"average_heartrate"`
	MaxHeartrate     *float64  `json:"max_heartrate"`
	AverageTemp      *float64  `json:"average_temp"`
	AverageSpeed     *float64  `json:"average_speed"`
	KudosCount       int       `json:"kudos_count"`
	AthleteCount     int       `json:"athlete_count"`
	Flagged          bool      `json:"flagged"`

	BestEfforts []struct {
		Name           string    `json:"name"`
		StartDateLocal time.Time `json:"start_date_local"`
		ElapsedTime    int64     `json:"elapsed_time"`
	} `json:"best_efforts"`

	SegmentEfforts []struct {
		ID          int64   `json:"id"`
		ElapsedTime int64   `json:"elapsed_time"`
		Distance    float64 `json:"distance"`
		Segment     struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"segment_efforts"`

	Map struct {
		Polyline        string `json:"polyline"`
		SummaryPolyline string `json:"summary_polyline"`
	} `json:"map"`
}

func (a *stravaActivity) toRecord(athleteID int64) models.ActivityRecord {
	rec := models.ActivityRecord{
		ID:             a.ID,
		AthleteID:      athleteID,
		Name:           a.Name,
		SportType:      a.SportType,
		StartDate:      a.StartDate,
		StartDateLocal: a.StartDateLocal,
		MovingSeconds:  a.MovingTime,
		ElapsedSeconds: a.ElapsedTime,
		DistanceMeters: a.Distance,
		ElevationGain:  a.TotalElevGain,
		AvgHeartRate:   a.AverageHeartrate,
		MaxHeartRate:   a.MaxHeartrate,
		AvgTemp:        a.AverageTemp,
		AvgSpeed:       a.AverageSpeed,
		KudosCount:     a.KudosCount,
		AthleteCount:   a.AthleteCount,
		Flagged:        a.Flagged,
	}

	for _, be := range a.BestEfforts {
		rec.BestEfforts = append(rec.BestEfforts, models.BestEffort{
			Name:           be.Name,
			StartDateLocal: be.StartDateLocal,
			ElapsedSeconds: be.ElapsedTime,
		})
	}

	for _, e := range a.SegmentEfforts {
		rec.SegmentEfforts = append(rec.SegmentEfforts, models.SegmentEffort{
			ID:             e.ID,
			SegmentID:      e.Segment.ID,
			SegmentName:    e.Segment.Name,
			ElapsedSeconds: e.ElapsedTime,
			DistanceMeters: e.Distance,
		})
	}

	rec.MapPolyline = a.Map.Polyline
	if rec.MapPolyline == "" {
		rec.MapPolyline = a.Map.SummaryPolyline
	}
	return rec
}
