package schemaload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
)

// Resolver fetches the content a PendingIntrospection describes and
// registers it on an AnalysisHost under a virtual schema:// URI, grounded
// on the teacher's internal/loader/universal.go UniversalSchemaLoader:
// same retry-with-backoff HTTP fetch, same introspection-query-to-SDL
// conversion. Unlike the teacher's loader, a Resolver does no caching of
// its own — caching pending sources across repeated loads is left to the
// caller, matching how PendingIntrospection carries a CacheTTL hint rather
// than this package enforcing one.
type Resolver struct {
	httpClient *http.Client
}

// NewResolver returns a Resolver with a generous default client timeout;
// per-request timeouts still come from each PendingIntrospection's own
// Timeout field when present.
func NewResolver() *Resolver {
	return &Resolver{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Resolve fetches p's content (a raw SDL document for Mode "url", an
// introspection response converted to SDL for Mode "introspection"),
// registers it on host via AddIntrospectedSchema, and returns the virtual
// URI the schema was registered under.
func (r *Resolver) Resolve(ctx context.Context, host *analysis.AnalysisHost, p PendingIntrospection) (analysis.Uri, error) {
	retries := p.Retries
	if retries <= 0 {
		retries = 3
	}
	if d, err := time.ParseDuration(p.Timeout); err == nil && d > 0 {
		client := *r.httpClient
		client.Timeout = d
		r = &Resolver{httpClient: &client}
	}

	var sdl string
	var err error
	switch p.Mode {
	case "introspection":
		sdl, err = r.fetchIntrospection(ctx, p.URL, p.Headers, retries)
	default:
		sdl, err = r.fetchURL(ctx, p.URL, p.Headers, retries)
	}
	if err != nil {
		return "", err
	}

	return host.AddIntrospectedSchema(p.URL, sdl), nil
}

// fetchURL fetches p.URL's body directly as SDL text, retrying with
// exponential backoff the way loadFromURL does.
func (r *Resolver) fetchURL(ctx context.Context, urlStr string, headers map[string]string, retries int) (string, error) {
	if err := validateHTTPURL(urlStr); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		setHeaders(req, headers)

		body, err := r.do(req)
		if err != nil {
			lastErr = err
			continue
		}
		return string(body), nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", retries, lastErr)
}

// fetchIntrospection executes the standard introspection query against
// urlStr and converts the response to SDL, retrying with exponential
// backoff the way loadFromIntrospection does.
func (r *Resolver) fetchIntrospection(ctx context.Context, urlStr string, headers map[string]string, retries int) (string, error) {
	if err := validateHTTPURL(urlStr); err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(map[string]interface{}{"query": introspectionQuery})
	if err != nil {
		return "", fmt.Errorf("marshaling introspection request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(requestBody))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		setHeaders(req, headers)

		body, err := r.do(req)
		if err != nil {
			lastErr = err
			continue
		}

		var result struct {
			Data struct {
				Schema json.RawMessage `json:"__schema"`
			} `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			lastErr = fmt.Errorf("parsing introspection response: %w", err)
			continue
		}
		if len(result.Errors) > 0 {
			msgs := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				msgs[i] = e.Message
			}
			lastErr = fmt.Errorf("GraphQL errors: %s", strings.Join(msgs, "; "))
			continue
		}
		if len(result.Data.Schema) == 0 {
			lastErr = fmt.Errorf("no schema data in introspection response")
			continue
		}

		return introspectionToSDL(result.Data.Schema)
	}

	return "", fmt.Errorf("introspection failed after %d attempts: %w", retries, lastErr)
}

func (r *Resolver) do(req *http.Request) ([]byte, error) {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func setHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, os.ExpandEnv(value))
	}
}

func validateHTTPURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	return nil
}
