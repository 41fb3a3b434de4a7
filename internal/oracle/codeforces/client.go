// Package codeforces implements the oracle contract over the
// Codeforces JSON API (user.info / user.status).
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	statusOK = "OK"

	// markerVerdict is the ownership marker: the user proves control
	// of the account by submitting anything that fails to compile.
	markerVerdict = "COMPILATION_ERROR"

	// markerWindow is how many of the most recent submissions are
	// inspected for the marker.
	markerWindow = 5
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg config.Oracle) *Client {
	return &Client{
		baseURL: cfg.CodeforcesBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

type userInfoResponse struct {
	Status string `json:"status"`
	Result []struct {
		Handle    string `json:"handle"`
		Rank      string `json:"rank"`
		Rating    int    `json:"rating"`
		MaxRating int    `json:"maxRating"`
	} `json:"result"`
}

type submission struct {
	Verdict             string `json:"verdict"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Problem             struct {
		ContestID int      `json:"contestId"`
		Index     string   `json:"index"`
		Name      string   `json:"name"`
		Rating    int      `json:"rating"`
		Tags      []string `json:"tags"`
	} `json:"problem"`
}

type userStatusResponse struct {
	Status string       `json:"status"`
	Result []submission `json:"result"`
}

func (c *Client) CheckOwnershipMarker(ctx context.Context, handle string, since time.Time) bool {
	subs, err := c.userStatus(ctx, handle, 1, markerWindow)
	if err != nil {
		logger.Debug("codeforces marker check failed", zap.String("handle", handle), zap.Error(err))
		return false
	}

	for _, sub := range subs {
		if sub.Verdict == markerVerdict && sub.CreationTimeSeconds >= since.Unix() {
			return true
		}
	}
	return false
}

func (c *Client) FetchTier(ctx context.Context, handle string) (oracle.Tier, error) {
	info, err := c.userInfo(ctx, handle)
	if err != nil {
		logger.Debug("codeforces tier fetch failed", zap.String("handle", handle), zap.Error(err))
		return oracle.Tier{}, oracle.ErrUnavailable
	}
	return oracle.Tier{Label: info.Rank, Rating: info.Rating}, nil
}

func (c *Client) FetchActivityStats(ctx context.Context, handle string) (*oracle.Stats, error) {
	info, err := c.userInfo(ctx, handle)
	if err != nil {
		return nil, oracle.ErrUnavailable
	}

	subs, err := c.userStatus(ctx, handle, 0, 0)
	if err != nil {
		return nil, oracle.ErrUnavailable
	}

	weekCutoff := time.Now().Add(-7 * 24 * time.Hour).Unix()
	solved := make(map[string]struct{})
	solvedWeek := make(map[string]struct{})
	solvedDays := make(map[string]struct{})

	for _, sub := range subs {
		if sub.Verdict != statusOK {
			continue
		}
		solved[sub.Problem.Name] = struct{}{}
		if sub.CreationTimeSeconds >= weekCutoff {
			solvedWeek[sub.Problem.Name] = struct{}{}
		}
		day := time.Unix(sub.CreationTimeSeconds, 0).UTC().Format(time.DateOnly)
		solvedDays[day] = struct{}{}
	}

	return &oracle.Stats{
		Tier:       info.Rank,
		Rating:     info.Rating,
		MaxRating:  info.MaxRating,
		Solved:     len(solved),
		SolvedWeek: len(solvedWeek),
		Streak:     longestDailyStreak(solvedDays),
	}, nil
}

// longestDailyStreak counts the longest run of consecutive days with
// at least one accepted submission.
func longestDailyStreak(days map[string]struct{}) int {
	maxStreak := 0
	for day := range days {
		d, err := time.Parse(time.DateOnly, day)
		if err != nil {
			continue
		}
		// Only start counting at the beginning of a run.
		if _, ok := days[d.AddDate(0, 0, -1).Format(time.DateOnly)]; ok {
			continue
		}
		streak := 1
		for {
			d = d.AddDate(0, 0, 1)
			if _, ok := days[d.Format(time.DateOnly)]; !ok {
				break
			}
			streak++
		}
		if streak > maxStreak {
			maxStreak = streak
		}
	}
	return maxStreak
}

func (c *Client) userInfo(ctx context.Context, handle string) (*struct {
	Handle    string `json:"handle"`
	Rank      string `json:"rank"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
}, error) {
	endpoint := fmt.Sprintf("%s/api/user.info?handles=%s", c.baseURL, url.QueryEscape(handle))

	var resp userInfoResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK || len(resp.Result) == 0 {
		return nil, fmt.Errorf("user.info status %q for %s", resp.Status, handle)
	}
	return &resp.Result[0], nil
}

func (c *Client) userStatus(ctx context.Context, handle string, from int, count int) ([]submission, error) {
	endpoint := fmt.Sprintf("%s/api/user.status?handle=%s", c.baseURL, url.QueryEscape(handle))
	if count > 0 {
		endpoint = fmt.Sprintf("%s&from=%d&count=%d", endpoint, from, count)
	}

	var resp userStatusResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, fmt.Errorf("user.status status %q for %s", resp.Status, handle)
	}
	return resp.Result, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}

	return nil
}
