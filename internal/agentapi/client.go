package agentapi

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

	"golang.org/x/time/rate"
)

// MaxResponseBytes bounds any response body read from the API.
const MaxResponseBytes = 4 << 20

// ErrMissingExecutionID is returned when a run response lacks an execution id.
var ErrMissingExecutionID = errors.New("response does not contain workflow_version_execution_id")

// StatusError reports a non-2xx response from a non-polling endpoint.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Body is the trimmed response body.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api status %d", e.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.Code, e.Body)
}

// Client calls the remote agent API.
type Client struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string
	// APIKey is sent in the X-API-KEY header.
	APIKey string
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// PageSize is the per_page value used by ListAgents.
	PageSize int
	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter
	// MaxBody caps response bodies; MaxResponseBytes when zero.
	MaxBody int64
	// HTTP overrides the underlying HTTP client.
	HTTP *http.Client
}

// Run submits an agent execution and returns its execution id.
func (c Client) Run(ctx context.Context, agentName string, req RunRequest) (int64, error) {
	if strings.TrimSpace(agentName) == "" {
		return 0, errors.New("agent name is empty")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, data, err := c.do(ctx, http.MethodPost, "/workflows/"+url.PathEscape(agentName)+"/run", nil, body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var parsed RunResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("invalid run response: %w", err)
	}
	if parsed.ExecutionID == nil {
		return 0, ErrMissingExecutionID
	}
	return *parsed.ExecutionID, nil
}

// Results polls the execution results endpoint once. The HTTP status code of
// the response decides the poll state; the body is not inspected.
func (c Client) Results(ctx context.Context, executionID int64, returnAllOutputs bool) (PollOutcome, error) {
	query := url.Values{}
	query.Set("workflow_version_execution_id", strconv.FormatInt(executionID, 10))
	query.Set("return_all_outputs", strconv.FormatBool(returnAllOutputs))

	resp, data, err := c.do(ctx, http.MethodGet, "/workflow-version-execution-results", query, nil)
	if err != nil {
		return PollOutcome{}, err
	}

	outcome := PollOutcome{StatusCode: resp.StatusCode, Body: data}
	switch resp.StatusCode {
	case http.StatusOK:
		outcome.State = PollCompleted
	case http.StatusAccepted:
		outcome.State = PollPending
	default:
		outcome.State = PollFailed
	}
	return outcome, nil
}

// ListAgents walks every page of the agent listing and returns the names in
// server order. Pagination follows next_num as returned by the server.
func (c Client) ListAgents(ctx context.Context) ([]string, error) {
	perPage := c.PageSize
	if perPage <= 0 {
		perPage = 100
	}

	var names []string
	seen := map[int]struct{}{}
	page := 1
	for {
		seen[page] = struct{}{}
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))

		resp, data, err := c.do(ctx, http.MethodGet, "/workflows", query, nil)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}

		var parsed ListResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("invalid listing response on page %d: %w", page, err)
		}
		for _, item := range parsed.Items {
			names = append(names, item.Name)
		}

		if !parsed.HasNext {
			return names, nil
		}
		if parsed.NextNum == nil {
			return nil, fmt.Errorf("listing page %d has next page but no next_num", page)
		}
		if _, dup := seen[*parsed.NextNum]; dup {
			return nil, fmt.Errorf("listing page %d points back to page %d", page, *parsed.NextNum)
		}
		page = *parsed.NextNum
	}
}

func (c Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, []byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, nil, errors.New("api key is empty")
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	endpoint, err := c.resolve(path, query)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set(APIKeyHeader, c.APIKey)
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody()+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if int64(len(data)) > c.maxBody() {
		return nil, nil, fmt.Errorf("%s response exceeds %d bytes", path, c.maxBody())
	}
	return resp, data, nil
}

func (c Client) resolve(path string, query url.Values) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c Client) maxBody() int64 {
	if c.MaxBody <= 0 {
		return MaxResponseBytes
	}
	return c.MaxBody
}
