// Package api is the HTTP client for the paperwave backend. It covers the
// consumed REST contract (feed pages, feedback submits, account interactions)
// plus the per-paper endpoints used for collection hydration and narration.
// The client does not retry; failure policy belongs to the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/leorudin/paperwave/internal/store"
)

const userAgent = "paperwave/1.0 (+https://github.com/leorudin/paperwave)"

// ErrNotGenerated reports that the backend has not (yet) generated narration
// for the requested paper. Callers treat it as non-retryable.
var ErrNotGenerated = errors.New("narration not generated")

// Client talks to the paperwave backend.
type Client struct {
	baseURL   string
	token     string
	installID string
	client    *http.Client
	limiter   *rate.Limiter
}

// New creates a Client for the given backend. token may be empty for
// anonymous use; rps bounds outbound request rate.
func New(baseURL, token string, rps float64) *Client {
	if rps <= 0 {
		rps = 4
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Authenticated returns true if an account token is configured.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// SetInstallID attaches the anonymous install identifier to every request.
// The backend uses it to attribute feedback when no account token is set.
func (c *Client) SetInstallID(id string) {
	c.installID = id
}

// FetchFeed requests one page of the ranked feed for the given session tuple.
func (c *Client) FetchFeed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("source", q.Source)
	if q.SubSource != "" {
		params.Set("sub_source", q.SubSource)
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}

	body, err := c.get(ctx, "/v1/feed?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("api: fetch feed: %w", err)
	}

	var payload feedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("api: parse feed response: %w", err)
	}

	now := time.Now()
	page := &FeedPage{Total: payload.Total, Papers: make([]store.Paper, 0, len(payload.Papers))}
	for _, p := range payload.Papers {
		if p.ID == "" {
			continue
		}
		page.Papers = append(page.Papers, p.toPaper(now))
	}
	return page, nil
}

// SubmitFeedback posts one user signal. Fire-and-forget callers own the
// failure policy; this method just reports the outcome.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("api: marshal feedback: %w", err)
	}

	if err := c.post(ctx, "/v1/feedback", payload); err != nil {
		return fmt.Errorf("api: submit feedback: %w", err)
	}
	return nil
}

// GetUserInteractions fetches the account's interaction sets. Only called
// when a token is configured.
func (c *Client) GetUserInteractions(ctx context.Context) (store.InteractionRecord, error) {
	body, err := c.get(ctx, "/v1/interactions")
	if err != nil {
		return store.DefaultInteractions(), fmt.Errorf("api: get interactions: %w", err)
	}

	var payload interactionsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return store.DefaultInteractions(), fmt.Errorf("api: parse interactions response: %w", err)
	}
	return payload.toRecord(), nil
}

// FetchPaper retrieves a single paper snapshot by id.
func (c *Client) FetchPaper(ctx context.Context, id string) (store.Paper, error) {
	body, err := c.get(ctx, "/v1/papers/"+url.PathEscape(id))
	if err != nil {
		return store.Paper{}, fmt.Errorf("api: fetch paper %s: %w", id, err)
	}

	var payload paperPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return store.Paper{}, fmt.Errorf("api: parse paper response: %w", err)
	}
	return payload.toPaper(time.Now()), nil
}

// FetchNarration retrieves the narration clip for a paper. Returns
// ErrNotGenerated when the backend has no narration for the id.
func (c *Client) FetchNarration(ctx context.Context, id string) (*NarrationClip, error) {
	body, err := c.get(ctx, "/v1/papers/"+url.PathEscape(id)+"/narration")
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, fmt.Errorf("api: paper %s: %w", id, ErrNotGenerated)
		}
		return nil, fmt.Errorf("api: fetch narration %s: %w", id, err)
	}

	var clip NarrationClip
	if err := json.Unmarshal(body, &clip); err != nil {
		return nil, fmt.Errorf("api: parse narration response: %w", err)
	}
	if clip.PaperID == "" {
		clip.PaperID = id
	}
	return &clip, nil
}

// statusError carries a non-2xx response for classification by callers.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.code, e.body)
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// post performs a rate-limited POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, payload []byte) error {
	_, err := c.do(ctx, http.MethodPost, path, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.installID != "" {
		req.Header.Set("X-Install-Id", c.installID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: truncateBody(body)}
	}

	return body, nil
}

// truncateBody keeps error messages readable when the backend returns HTML
// error pages.
func truncateBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
