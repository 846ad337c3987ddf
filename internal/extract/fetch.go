// Package extract pulls readable text out of web pages and local files.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zombar/contentlens/internal/models"
)

// UserAgent identifies fetch requests
const UserAgent = "Mozilla/5.0 (compatible; ContentLens/1.0)"

// DefaultTimeout bounds a page fetch
const DefaultTimeout = 10 * time.Second

const (
	maxBodyBytes     = 5 << 20
	minContentLength = 50
)

var (
	ErrURLRequired       = errors.New("URL is required")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrUnsupportedScheme = fmt.Errorf("%w: only HTTP/HTTPS URLs supported", ErrInvalidURL)
	ErrFetchTimeout      = errors.New("URL fetch timed out")
	ErrUpstreamStatus    = errors.New("failed to fetch URL")
	ErrNotEnoughContent  = errors.New("could not extract readable content from this URL")
)

// StatusError carries the upstream status of a failed fetch
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrUpstreamStatus, e.StatusCode)
}

// Is makes StatusError match ErrUpstreamStatus
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstreamStatus
}

// Fetcher downloads and extracts articles
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher with the given timeout (DefaultTimeout when <= 0)
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// ParseURL validates a user-supplied article URL
func ParseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrURLRequired
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}
	return u, nil
}

// FetchURL downloads a page and extracts its article text
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (*models.ExtractedContent, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	doc, err := ExtractHTML(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("parse %s: %w", u.Host, err)
	}

	charCount := utf8.RuneCountInString(doc.Text)
	if charCount < minContentLength {
		return nil, ErrNotEnoughContent
	}

	f.logger.Debug("fetched article",
		"source", u.Hostname(),
		"char_count", charCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.ExtractedContent{
		Content:   truncate(doc.Text, MaxContentLength),
		Title:     doc.Title,
		Source:    u.Hostname(),
		CharCount: charCount,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
