// Package exling talks to an ExLing-style linguistic analysis service that
// answers plain-text POST requests with an XML annotation tree.
package exling

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"

	"golang.org/x/sync/semaphore"
)

// Client implements annotation.Annotator over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	reqLock    *semaphore.Weighted
}

// NewClientParams contains configuration options for creating a new Client.
type NewClientParams struct {
	BaseURL string
	Service string
	ApiKey  string

	// MaxConcurrentRequests bounds in-flight requests; values <= 0 mean 4.
	MaxConcurrentRequests int64

	// HTTPClient overrides the default client. Its transport is wrapped so the
	// api key header is still applied.
	HTTPClient *http.Client
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a client posting to BaseURL/Service.
func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("annotation service url is empty")
	}
	base, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, err
	}
	endpoint := base.JoinPath(strings.Trim(params.Service, "/"))

	httpClient := &http.Client{}
	if params.HTTPClient != nil {
		c := *params.HTTPClient
		httpClient = &c
	}
	rt := httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient.Transport = &headerTransport{headers: headers, rt: rt}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}

	return &Client{
		endpoint:   endpoint.String(),
		httpClient: httpClient,
		reqLock:    semaphore.NewWeighted(maxReq),
	}, nil
}

// Annotate sends text to the service and decodes the returned tree.
func (c *Client) Annotate(ctx context.Context, text string) (*annotation.Tree, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/xml")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotation service request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read annotation response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("annotation service returned %d: %s", res.StatusCode, truncate(body, 256))
	}

	tree, err := annotation.ParseXML(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	logger.Debug("[Annotation] Analyzed text", "chars", len(text), "sentences", len(tree.Sentences))
	return tree, nil
}

// Ping converts a short sample text to check the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Annotate(ctx, "Проверка.")
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
