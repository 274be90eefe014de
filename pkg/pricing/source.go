package pricing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/o1x3/ctoken/pkg/telemetry/tracing"
)

// DefaultRemoteURL is the published CSV the refresh job regenerates.
const DefaultRemoteURL = "https://raw.githubusercontent.com/o1x3/ctoken/main/data/openai_text_tokens_pricing.csv"

// DefaultFetchTimeout bounds a remote pricing download.
const DefaultFetchTimeout = 10 * time.Second

// maxBodySize caps the remote CSV download.
const maxBodySize = 10 * 1024 * 1024

const tracerName = "github.com/o1x3/ctoken/pkg/pricing"

// Source loads a complete price table.
type Source interface {
	// Load returns a fully validated table or an error; never a partial table.
	Load(ctx context.Context) (*Table, error)

	// Name identifies the source in logs and metrics.
	Name() string
}

// EmbeddedSource serves the built-in table.
type EmbeddedSource struct{}

// Load returns the built-in table.
func (EmbeddedSource) Load(context.Context) (*Table, error) {
	return EmbeddedTable(), nil
}

// Name returns "embedded".
func (EmbeddedSource) Name() string {
	return SourceEmbedded
}

// CSVFileSource reads a pricing CSV from the local filesystem.
type CSVFileSource struct {
	Path string
}

// Load reads and parses the CSV file.
func (s CSVFileSource) Load(context.Context) (*Table, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing csv %q: %w", s.Path, err)
	}
	t, err := ParseCSV(bytes.NewReader(data), Metadata{Source: s.Name()})
	if err != nil {
		return nil, fmt.Errorf("parsing pricing csv %q: %w", s.Path, err)
	}
	return t, nil
}

// Name returns "csv:<path>".
func (s CSVFileSource) Name() string {
	return "csv:" + s.Path
}

// RemoteSource downloads a pricing CSV over HTTP.
type RemoteSource struct {
	// URL is the CSV location. Empty means DefaultRemoteURL.
	URL string

	// Timeout bounds the whole download. Zero means DefaultFetchTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client. Its own Timeout is left untouched.
	Client *http.Client
}

// Name returns "remote:<url>".
func (s *RemoteSource) Name() string {
	return "remote:" + s.url()
}

func (s *RemoteSource) url() string {
	if s.URL == "" {
		return DefaultRemoteURL
	}
	return s.URL
}

// Load fetches and parses the remote CSV. Network errors, timeouts, non-200
// responses and oversize bodies are returned as *FetchError.
func (s *RemoteSource) Load(ctx context.Context) (*Table, error) {
	url := s.url()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pricing.fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("pricing.url", url))

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	raw, err := fetch(ctx, client, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("pricing.bytes", len(raw)))

	t, err := ParseCSV(bytes.NewReader(raw), Metadata{Source: s.Name()})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, fmt.Errorf("parsing remote pricing csv: %w", err)
	}
	span.SetAttributes(attribute.Int("pricing.entries", t.Len()))

	return t, nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv, text/plain")
	tracing.Inject(ctx, req.Header)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")}
	}

	limited := io.LimitReader(resp.Body, maxBodySize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(raw) > maxBodySize {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("response body too large (exceeds %d bytes)", maxBodySize)}
	}

	return raw, nil
}
