// Package codechef implements the oracle contract by scraping the
// rendered CodeChef profile page. The parsing is deliberately
// tolerant: a missing field degrades to its zero value, a failed
// fetch degrades to ErrUnavailable, and nothing here panics on
// markup drift.
package codechef

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Verdict shown in the recent-activity table for a submission that
// failed to compile. This is the ownership marker.
const markerResult = "CTE"

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg config.Oracle) *Client {
	return &Client{
		baseURL: cfg.CodechefBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

// profile holds every field extracted from one page render.
type profile struct {
	rating        int
	stars         int
	globalRank    int
	countryRank   int
	solved        int
	latestResults []string
}

// CheckOwnershipMarker reports whether the most recent visible
// submission failed compilation. The page does not expose submission
// timestamps in a stable format, so the cutoff cannot be applied
// here; a stale CTE older than the session is the accepted risk of
// the scrape variant.
func (c *Client) CheckOwnershipMarker(ctx context.Context, handle string, _ time.Time) bool {
	p, err := c.fetchProfile(ctx, handle)
	if err != nil {
		logger.Debug("codechef marker check failed", zap.String("handle", handle), zap.Error(err))
		return false
	}
	if len(p.latestResults) == 0 {
		return false
	}
	return strings.Contains(p.latestResults[0], markerResult)
}

func (c *Client) FetchTier(ctx context.Context, handle string) (oracle.Tier, error) {
	p, err := c.fetchProfile(ctx, handle)
	if err != nil {
		logger.Debug("codechef tier fetch failed", zap.String("handle", handle), zap.Error(err))
		return oracle.Tier{}, oracle.ErrUnavailable
	}
	return oracle.Tier{Label: fmt.Sprintf("%d★", p.stars), Rating: p.rating}, nil
}

func (c *Client) FetchActivityStats(ctx context.Context, handle string) (*oracle.Stats, error) {
	p, err := c.fetchProfile(ctx, handle)
	if err != nil {
		return nil, oracle.ErrUnavailable
	}
	return &oracle.Stats{
		Tier:        fmt.Sprintf("%d★", p.stars),
		Rating:      p.rating,
		Solved:      p.solved,
		GlobalRank:  p.globalRank,
		CountryRank: p.countryRank,
	}, nil
}

func (c *Client) fetchProfile(ctx context.Context, handle string) (*profile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("User-Agent", "ranksync/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page failed: %w", err)
	}

	return parseProfile(root), nil
}

var (
	starsRe  = regexp.MustCompile(`(\d+)`)
	solvedRe = regexp.MustCompile(`Total Problems Solved:\s*(\d+)`)
)

func parseProfile(root *html.Node) *profile {
	p := &profile{}

	if n := findByClass(root, "rating-number"); n != nil {
		p.rating = firstInt(textContent(n))
	}
	if n := findByClass(root, "rating-star"); n == nil {
		if n = findByClass(root, "rating"); n != nil {
			p.stars = firstInt(textContent(n))
		}
	} else {
		p.stars = firstInt(textContent(n))
	}
	if n := findByClass(root, "rating-ranks"); n != nil {
		ranks := collectByTag(n, "strong")
		if len(ranks) > 0 {
			p.globalRank = firstInt(textContent(ranks[0]))
		}
		if len(ranks) > 1 {
			p.countryRank = firstInt(textContent(ranks[1]))
		}
	}
	if n := findByClass(root, "problems-solved"); n != nil {
		if m := solvedRe.FindStringSubmatch(textContent(n)); m != nil {
			p.solved, _ = strconv.Atoi(m[1])
		}
	}
	if n := findByClass(root, "dataTable"); n != nil {
		for _, row := range collectByTag(n, "tr") {
			cells := collectByTag(row, "td")
			if len(cells) == 0 {
				continue
			}
			p.latestResults = append(p.latestResults, textContent(cells[len(cells)-1]))
		}
	}

	return p
}

func firstInt(s string) int {
	m := starsRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return n
				}
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

func collectByTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
