package sources

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"reel/internal/config"
	"reel/internal/services"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultMaxFetchSize = 32 << 20
)

// Material is one fetched piece of grounding content.
type Material struct {
	Name     string
	MimeType string
	Body     []byte
}

// Fetcher retrieves grounding material (PDF, markdown, HTML) over HTTP so it
// can be saved into the artifact store.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher constructs a fetcher from the sources configuration.
func NewFetcher(cfg config.Sources, opts ...Option) *Fetcher {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	maxBytes := int64(defaultMaxFetchSize)
	if cfg.MaxFetchBytes > 0 {
		maxBytes = cfg.MaxFetchBytes
	}
	fetcher := &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads the identified source. Unreachable or oversized sources
// fail with ErrSourceUnavailable so pipelines can report them uniformly.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (Material, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Material{}, services.Wrap(services.ErrValidation, "sources", "fetch", "source identifier required", nil)
	}
	parsed, err := url.Parse(identifier)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Material{}, services.Wrap(services.ErrValidation, "sources", "fetch",
			fmt.Sprintf("unsupported source identifier %q", identifier), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identifier, nil)
	if err != nil {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch", "build request", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch",
			fmt.Sprintf("fetch %s", identifier), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch",
			fmt.Sprintf("fetch %s: http %d", identifier, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch", "read body", err)
	}
	if int64(len(body)) > f.maxBytes {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch",
			fmt.Sprintf("source %s exceeds %d bytes", identifier, f.maxBytes), nil)
	}
	if len(body) == 0 {
		return Material{}, services.Wrap(services.ErrSourceUnavailable, "sources", "fetch",
			fmt.Sprintf("source %s is empty", identifier), nil)
	}

	return Material{
		Name:     materialName(parsed),
		MimeType: materialMimeType(resp.Header.Get("Content-Type"), parsed),
		Body:     body,
	}, nil
}

// materialName derives a stable artifact name from the URL path.
func materialName(parsed *url.URL) string {
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		base = parsed.Host
	}
	return base
}

// materialMimeType prefers the response header, falling back to the
// identifier's extension and then to a generic binary type.
func materialMimeType(contentType string, parsed *url.URL) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType != "" {
			return mediaType
		}
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
				return mediaType
			}
		}
	}
	return "application/octet-stream"
}
