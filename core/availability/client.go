package availability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"library-alert/core/utils"

	mapset "github.com/deckarep/golang-set/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrTransport marks failures talking to the availability service.
var ErrTransport = errors.New("availability lookup failed")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// checkResponse is the body returned by GET /check.
type checkResponse struct {
	Session  string                      `json:"session"`
	Continue any                         `json:"continue"`
	Books    map[string]map[string]Entry `json:"books"`
}

// Client queries the calil check API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	appKey      string
	maxAttempts int
	interval    time.Duration
	logger      *zap.Logger
}

// NewClient creates a client from configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		appKey:      cfg.AppKey,
		maxAttempts: maxAttempts,
		interval:    cfg.Interval,
		logger:      logger,
	}
}

// Poll looks up every ISBN at every library in a single batched query and
// re-issues it while the service reports continue=1, waiting the configured
// interval after each response before the next attempt. It gives up after
// MaxAttempts and returns the last response with Complete=false.
func (c *Client) Poll(ctx context.Context, isbns, libraryIDs mapset.Set[string]) (*Report, error) {
	report := &Report{Books: map[string]map[string]Entry{}, Complete: true}
	if isbns.Cardinality() == 0 || libraryIDs.Cardinality() == 0 {
		return report, nil
	}

	query := url.Values{}
	query.Set("appkey", c.appKey)
	query.Set("isbn", joinSorted(isbns))
	query.Set("systemid", joinSorted(libraryIDs))
	query.Set("format", "json")
	query.Set("callback", "no")
	endpoint := c.baseURL + "/check?" + query.Encode()

	var last *checkResponse
	for report.Attempts < c.maxAttempts {
		if report.Attempts > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrTransport, err)
			}
		}

		resp, err := c.check(ctx, endpoint)
		report.Attempts++
		if err != nil {
			return nil, err
		}
		last = resp

		cont := utils.ToInt(resp.Continue)
		c.logger.Debug("Availability lookup attempt",
			zap.Int("attempt", report.Attempts),
			zap.Int("continue", cont),
			zap.String("session", resp.Session),
		)
		if cont == 0 {
			break
		}
	}

	report.Complete = utils.ToInt(last.Continue) == 0
	if last.Books != nil {
		report.Books = last.Books
	}
	return report, nil
}

// pause blocks for one interval counted from now, so a slow response does not
// shorten the gap before the next attempt.
func (c *Client) pause(ctx context.Context) error {
	if c.interval <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(c.interval), 1)
	// Spend the initial token so Wait blocks a full interval
	limiter.Allow()
	return limiter.Wait(ctx)
}

func (c *Client) check(ctx context.Context, endpoint string) (*checkResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrTransport, resp.StatusCode)
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", ErrTransport, err)
	}
	return &body, nil
}

func joinSorted(set mapset.Set[string]) string {
	values := set.ToSlice()
	sort.Strings(values)
	return strings.Join(values, ",")
}
