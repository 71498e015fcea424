// Package cli is the command-line client of spec.md §4.5: each command
// maps directly to one HTTP adapter endpoint on a running daemon.
package cli

import (
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a thin resty wrapper pointed at a running daemon's HTTP
// adapter, the same house HTTP client the teacher uses for its RAG
// service calls.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

func (c *Client) Health() (map[string]any, error) {
	var out map[string]any
	resp, err := c.http.R().SetResult(&out).Get("/api/health")
	return out, checkResp(resp, err)
}

func (c *Client) Conversations(platform string, limit int) ([]map[string]any, error) {
	req := c.http.R()
	if platform != "" {
		req.SetQueryParam("platform", platform)
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	var out []map[string]any
	resp, err := req.SetResult(&out).Get("/api/conversations")
	return out, checkResp(resp, err)
}

func (c *Client) ConversationTimeline(platform, chatID string, after, before *int64, limit int) ([]map[string]any, error) {
	req := c.http.R()
	applyCursor(req, after, before, limit)
	var out []map[string]any
	resp, err := req.SetResult(&out).Get("/api/timeline/" + platform + "/" + chatID)
	return out, checkResp(resp, err)
}

func (c *Client) UnifiedTimeline(after, before *int64, limit int) ([]map[string]any, error) {
	req := c.http.R()
	applyCursor(req, after, before, limit)
	var out []map[string]any
	resp, err := req.SetResult(&out).Get("/api/timeline")
	return out, checkResp(resp, err)
}

func (c *Client) Ingest(body map[string]any) (map[string]any, error) {
	var out map[string]any
	resp, err := c.http.R().SetBody(body).SetResult(&out).Post("/api/messages")
	return out, checkResp(resp, err)
}

func (c *Client) Respond(body map[string]any) (map[string]any, error) {
	var out map[string]any
	resp, err := c.http.R().SetBody(body).SetResult(&out).Post("/api/responses")
	return out, checkResp(resp, err)
}

func applyCursor(req *resty.Request, after, before *int64, limit int) {
	if after != nil {
		req.SetQueryParam("after", strconv.FormatInt(*after, 10))
	}
	if before != nil {
		req.SetQueryParam("before", strconv.FormatInt(*before, 10))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
}

func checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &httpError{status: resp.StatusCode(), body: resp.String()}
	}
	return nil
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return e.body
}
