// Package client talks to a remote boardgen API.
package client

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
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/boardgen/internal/api"
	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/persistence"
)

// ErrNotFound matches 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) true for 404s.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client calls the HTTP API.
type Client struct {
	BaseURL    string
	Token      string // bearer token for admin calls
	HTTPClient *http.Client
}

// New creates a Client targeting the given API base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Status fetches GET /api/v1/status.
func (c *Client) Status(ctx context.Context) (*api.Status, error) {
	var st api.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Templates lists the template catalog.
func (c *Client) Templates(ctx context.Context) ([]api.TemplateInfo, error) {
	var out []api.TemplateInfo
	err := c.do(ctx, http.MethodGet, "/api/v1/templates", nil, &out)
	return out, err
}

// Generate runs a generation remotely. With save the server stores the board
// and the response carries its id.
func (c *Client) Generate(ctx context.Context, p mapgen.Params, save bool) (*api.GenerateResponse, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	path := "/api/v1/generate"
	if save {
		path += "?save=1"
	}
	var out api.GenerateResponse
	if err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns stored map summaries, newest first.
func (c *Client) List(ctx context.Context, limit int) ([]persistence.Summary, error) {
	var out []persistence.Summary
	err := c.do(ctx, http.MethodGet, "/api/v1/maps?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Get fetches one stored map.
func (c *Client) Get(ctx context.Context, id string) (*persistence.Record, error) {
	var rec persistence.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/maps/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Latest fetches the most recently saved map.
func (c *Client) Latest(ctx context.Context) (*persistence.Record, error) {
	var rec persistence.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/maps/latest", nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Preview fetches the plain-text rendering of a stored map.
func (c *Client) Preview(ctx context.Context, id string, legend bool) (string, error) {
	path := "/api/v1/maps/" + url.PathEscape(id) + "/preview"
	if legend {
		path += "?legend=1"
	}
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, path, nil, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Groups counts a stored map's parcels per colour group.
func (c *Client) Groups(ctx context.Context, id string) ([]persistence.GroupCount, error) {
	var out []persistence.GroupCount
	err := c.do(ctx, http.MethodGet, "/api/v1/maps/"+url.PathEscape(id)+"/groups", nil, &out)
	return out, err
}

// Delete removes a stored map. Requires Token.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/maps/"+url.PathEscape(id), nil, nil)
}

// Stream generates over the websocket endpoint, calling onPhase for every
// completed phase, and returns the closing summary.
func (c *Client) Stream(ctx context.Context, p mapgen.Params, save bool, onPhase func(api.PhaseEvent)) (*api.BoardSummary, error) {
	u, err := url.Parse(c.BaseURL + "/api/v1/ws/generate")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if save {
		u.RawQuery = "save=1"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	defer conn.Close()

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	if err := conn.WriteJSON(api.Envelope{Type: api.TypeGenerate, Payload: payload}); err != nil {
		return nil, fmt.Errorf("send params: %w", err)
	}

	for {
		var env api.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		switch env.Type {
		case api.TypePhase:
			var ev api.PhaseEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				return nil, fmt.Errorf("decode phase: %w", err)
			}
			if onPhase != nil {
				onPhase(ev)
			}
		case api.TypeDone:
			var sum api.BoardSummary
			if err := json.Unmarshal(env.Payload, &sum); err != nil {
				return nil, fmt.Errorf("decode summary: %w", err)
			}
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return &sum, nil
		case api.TypeError:
			var body api.ErrorBody
			json.Unmarshal(env.Payload, &body)
			return nil, fmt.Errorf("stream: %s", body.Error)
		}
	}
}

// do sends a request and decodes the response into target. A *bytes.Buffer
// target receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var eb api.ErrorBody
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	switch t := target.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		_, err := t.ReadFrom(resp.Body)
		return err
	default:
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
}
