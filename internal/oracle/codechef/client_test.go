package codechef

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const profilePage = `<!DOCTYPE html>
<html><body>
<div class="rating-header">
  <div class="rating-number">1823</div>
  <div class="rating-star"><span>4</span>&#9733;</div>
</div>
<div class="rating-ranks">
  <ul>
    <li>Global Rank: <strong>4521</strong></li>
    <li>Country Rank: <strong>812</strong></li>
  </ul>
</div>
<section class="problems-solved">
  <h3>Total Problems Solved: 347</h3>
</section>
<table class="dataTable">
  <tr><th>Time</th><th>Problem</th><th>Result</th></tr>
  <tr><td>2 min ago</td><td>FLOW001</td><td>CTE (compilation error)</td></tr>
  <tr><td>1 hour ago</td><td>START01</td><td>AC</td></tr>
</table>
</body></html>`

func profileServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/users/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(baseURL string) *Client {
	return NewClient(config.Oracle{
		CodechefBaseURL: baseURL,
		Timeout:         time.Second,
		RPS:             1000,
		Burst:           1000,
	})
}

func TestParseProfile(t *testing.T) {
	root, err := html.Parse(strings.NewReader(profilePage))
	require.NoError(t, err)

	p := parseProfile(root)
	assert.Equal(t, 1823, p.rating)
	assert.Equal(t, 4, p.stars)
	assert.Equal(t, 4521, p.globalRank)
	assert.Equal(t, 812, p.countryRank)
	assert.Equal(t, 347, p.solved)
	require.Len(t, p.latestResults, 2)
	assert.Contains(t, p.latestResults[0], "CTE")
	assert.Equal(t, "AC", p.latestResults[1])
}

func TestParseProfileTolerantOfMissingFields(t *testing.T) {
	root, err := html.Parse(strings.NewReader("<html><body><p>page under maintenance</p></body></html>"))
	require.NoError(t, err)

	p := parseProfile(root)
	assert.Zero(t, p.rating)
	assert.Zero(t, p.stars)
	assert.Zero(t, p.solved)
	assert.Empty(t, p.latestResults)
}

func TestCheckOwnershipMarker(t *testing.T) {
	srv := profileServer(t, profilePage)
	c := testClient(srv.URL)

	assert.True(t, c.CheckOwnershipMarker(context.Background(), "alice", time.Now()))
}

func TestCheckOwnershipMarkerNeedsLatestSubmission(t *testing.T) {
	// The marker only counts when it is the most recent row.
	page := strings.Replace(profilePage, "CTE (compilation error)", "WA", 1)
	srv := profileServer(t, page)
	c := testClient(srv.URL)

	assert.False(t, c.CheckOwnershipMarker(context.Background(), "alice", time.Now()))
}

func TestCheckOwnershipMarkerFailureReadsFalse(t *testing.T) {
	srv := profileServer(t, profilePage)
	c := testClient(srv.URL)
	srv.Close()

	assert.False(t, c.CheckOwnershipMarker(context.Background(), "alice", time.Now()))
}

func TestFetchTier(t *testing.T) {
	srv := profileServer(t, profilePage)
	c := testClient(srv.URL)

	tier, err := c.FetchTier(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "4★", tier.Label)
	assert.Equal(t, 1823, tier.Rating)
}

func TestFetchTierUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	c := testClient(srv.URL)

	_, err := c.FetchTier(context.Background(), "alice")
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestFetchActivityStats(t *testing.T) {
	srv := profileServer(t, profilePage)
	c := testClient(srv.URL)

	stats, err := c.FetchActivityStats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "4★", stats.Tier)
	assert.Equal(t, 1823, stats.Rating)
	assert.Equal(t, 347, stats.Solved)
	assert.Equal(t, 4521, stats.GlobalRank)
	assert.Equal(t, 812, stats.CountryRank)
}
