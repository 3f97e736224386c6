// Package fetch downloads job postings and reduces them to their description text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/recruiting-agent/internal/retry"
)

const (
	// DefaultTimeout bounds each HTTP attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (compatible; RecruiterAgent/1.0)"

	maxBodyBytes = 5 << 20
)

// Error reports a posting that could not be downloaded or had no usable text.
type Error struct {
	URL string
	// StatusCode is set when the server answered with something other than 200
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := "fetch " + e.URL + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Temporary reports whether another attempt may succeed: transport failures,
// 429 and 5xx responses.
func (e *Error) Temporary() bool {
	if e.StatusCode == 0 {
		return e.Cause != nil && !errors.Is(e.Cause, context.Canceled)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures HTTP downloads.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Retry applies to temporary failures only
	Retry retry.Policy
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Retry:     retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 4 * time.Second},
	}
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{URL: raw, Message: "invalid URL", Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{URL: raw, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	return nil
}

func isTemporary(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Temporary()
}

// download returns the HTML of a 200 response, retrying temporary failures under opts.Retry.
func download(ctx context.Context, client *http.Client, opts *Options, rawURL string, notify retry.Notify) (string, error) {
	if err := checkURL(rawURL); err != nil {
		return "", err
	}

	var html string
	_, err := opts.Retry.Do(ctx, isTemporary, func(ctx context.Context) error {
		body, err := get(ctx, client, opts, rawURL)
		html = body
		return err
	}, notify)
	return html, err
}

func get(ctx context.Context, client *http.Client, opts *Options, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	return string(body), nil
}

// Extracted is the readable part of a page
type Extracted struct {
	Title string
	Text  string
}

// ExtractMainText parses HTML and returns the title and main body text.
// Noise elements are removed first; the first matching content selector wins,
// falling back to the body element.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			main = selection.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	return Extracted{Title: title, Text: cleanWhitespace(main.Text())}, nil
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
