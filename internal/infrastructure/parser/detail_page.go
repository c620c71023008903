package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/normalize"
	"NewsAnalyzer/internal/ports"
)

// contentSelectors are tried in order; the first match is the article body.
var contentSelectors = []string{
	"#dic_area",
	"div._article_body_contents.article_body_contents",
	"div.article_body",
	"div.news_end",
}

// DetailExtractor downloads a detail page and normalizes its body.
type DetailExtractor struct {
	fetcher fetcher
	logger  *slog.Logger
}

var _ ports.DetailSource = (*DetailExtractor)(nil)

// NewDetailExtractor wires an HTTP client with the search settings.
func NewDetailExtractor(client *http.Client, cfg config.SearchConfig, log *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		fetcher: newFetcher(client, cfg.UserAgent),
		logger:  log,
	}
}

// Extract fetches ref.DetailURL and builds the article.
// Missing structure yields domain.ErrExtractionSkipped; transport failures
// yield *domain.ConnectivityError.
func (e *DetailExtractor) Extract(ctx context.Context, ref domain.ResultRef) (domain.Article, error) {
	if ref.DetailURL == "" {
		return domain.Article{}, fmt.Errorf("%w: no detail url", domain.ErrExtractionSkipped)
	}

	doc, err := e.fetcher.fetchDocument(ctx, ref.DetailURL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return domain.Article{}, fmt.Errorf("%w: %v", domain.ErrExtractionSkipped, err)
		}
		return domain.Article{}, err
	}

	body, ok := findContent(doc)
	if !ok {
		e.debug("content block not found", "url", ref.DetailURL)
		return domain.Article{}, fmt.Errorf("%w: content block missing at %s", domain.ErrExtractionSkipped, ref.DetailURL)
	}

	timestamp := findTimestamp(doc)
	document := domain.NewDocument(normalize.Sentences(body.Text()))

	return domain.NewArticle(ref, timestamp, document), nil
}

func findContent(doc *goquery.Document) (*goquery.Selection, bool) {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel, true
		}
	}
	return nil, false
}

// findTimestamp returns "" when the page carries no parseable date.
func findTimestamp(doc *goquery.Document) string {
	stamp := doc.Find("span.media_end_head_info_datestamp_time").First()
	if stamp.Length() > 0 {
		if raw, ok := stamp.Attr("data-date-time"); ok {
			if ts, err := normalize.Timestamp(raw); err == nil {
				return ts
			}
		}
		if ts, err := normalize.Timestamp(stamp.Text()); err == nil {
			return ts
		}
	}

	legacy := doc.Find("span.t11").First()
	if legacy.Length() > 0 {
		if ts, err := normalize.Timestamp(strings.TrimSpace(legacy.Text())); err == nil {
			return ts
		}
	}

	return ""
}

func (e *DetailExtractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
