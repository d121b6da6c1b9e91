package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of a failed response is kept as the message.
const maxErrorBody = 64 << 10

// Request describes a single call to the settlement service.
type Request struct {
	Method string
	// Path is relative to the configured base URL, e.g. "/settlements".
	Path string
	// Query is sent on GET requests.
	Query url.Values
	// Body is JSON-encoded on POST and DELETE requests when non-nil.
	Body any
}

// Executor performs authenticated JSON requests against the base URL. It does
// not interpret failures beyond reporting them as KindServer errors.
type Executor struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// NewExecutor returns an Executor for baseURL authenticating with token.
func NewExecutor(httpClient *http.Client, baseURL, token string) *Executor {
	return &Executor{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		userAgent:  defaultUserAgent,
	}
}

// Do sends req and returns the raw JSON body of a 2xx response.
//
// A non-2xx response yields an *Error of KindServer carrying the status and
// the response body. A transport failure yields an *Error of KindServer
// with HTTPStatus 0, wrapping the cause.
func (e *Executor) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	target := e.baseURL + req.Path

	var body io.Reader
	switch req.Method {
	case http.MethodGet:
		if len(req.Query) > 0 {
			target += "?" + req.Query.Encode()
		}
	default:
		if req.Body != nil {
			encoded, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("settlement: failed to marshal request body: %w", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("settlement: failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+e.token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindServer, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		if readErr != nil && msg == "" {
			msg = readErr.Error()
		}
		return nil, &Error{Kind: KindServer, HTTPStatus: resp.StatusCode, Message: msg}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindServer, HTTPStatus: resp.StatusCode, Message: err.Error(), Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, &Error{
			Kind:       KindServer,
			HTTPStatus: resp.StatusCode,
			Message:    "response body is not valid JSON",
		}
	}

	return json.RawMessage(raw), nil
}
