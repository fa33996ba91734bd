package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// responseCap bounds how much of an upstream body is read.
const responseCap = 4 * 1024 * 1024

// httpProvider fetches JSON from one upstream endpoint over GET with the
// lookup parameters as query string.
type httpProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func newHTTPProvider(name, baseURL string, client *http.Client) *httpProvider {
	return &httpProvider{name: name, baseURL: baseURL, client: client}
}

func (p *httpProvider) Name() string { return p.name }

func (p *httpProvider) Fetch(ctx context.Context, params map[string]string) (json.RawMessage, string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("provider %s: parse base url: %w", p.name, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("provider %s: build request: %w", p.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("provider %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("provider %s: unexpected status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseCap))
	if err != nil {
		return nil, "", fmt.Errorf("provider %s: read body: %w", p.name, err)
	}
	if !json.Valid(body) {
		return nil, "", fmt.Errorf("provider %s: response is not valid JSON", p.name)
	}

	return body, resp.Header.Get("ETag"), nil
}
