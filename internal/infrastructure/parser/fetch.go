package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"NewsAnalyzer/internal/domain"
)

const defaultUserAgent = "Mozilla/5.0"

// statusError is a non-2xx response; callers decide whether it is fatal.
type statusError struct {
	url    string
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.url, e.status)
}

type fetcher struct {
	client    *http.Client
	userAgent string
}

func newFetcher(client *http.Client, userAgent string) fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return fetcher{client: client, userAgent: userAgent}
}

// fetchDocument downloads and parses one page. Transport failures come back
// as *domain.ConnectivityError, non-2xx responses as *statusError.
func (f fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.ConnectivityError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{url: pageURL, status: resp.Status}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &domain.ConnectivityError{URL: pageURL, Err: fmt.Errorf("read document: %w", err)}
	}
	doc.Url, _ = url.Parse(pageURL)

	return doc, nil
}

// resolve makes href absolute against the document URL.
func resolve(doc *goquery.Document, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || doc == nil || doc.Url == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return doc.Url.ResolveReference(ref).String()
}
