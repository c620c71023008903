package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

// pickLabel trails the press name of editor-picked listing items.
const pickLabel = "언론사 선정"

// SearchPageFetcher downloads news search result pages and extracts listing items.
type SearchPageFetcher struct {
	fetcher fetcher
	baseURL string
	stride  int
	logger  *slog.Logger
}

var _ ports.PageSource = (*SearchPageFetcher)(nil)

// NewSearchPageFetcher wires an HTTP client with the search settings.
func NewSearchPageFetcher(client *http.Client, cfg config.SearchConfig, log *slog.Logger) *SearchPageFetcher {
	stride := cfg.PageStride
	if stride <= 0 {
		stride = 10
	}
	return &SearchPageFetcher{
		fetcher: newFetcher(client, cfg.UserAgent),
		baseURL: cfg.BaseURL,
		stride:  stride,
		logger:  log,
	}
}

// FetchPage returns the linkable listing items of result page index (0-based).
// Any failure to obtain the page is a *domain.ConnectivityError.
func (f *SearchPageFetcher) FetchPage(ctx context.Context, terms string, index int) ([]domain.ResultRef, error) {
	pageURL, err := buildPageURL(f.baseURL, terms, index, f.stride)
	if err != nil {
		return nil, err
	}

	doc, err := f.fetcher.fetchDocument(ctx, pageURL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, &domain.ConnectivityError{URL: pageURL, Err: err}
		}
		return nil, err
	}

	refs := parseListing(doc)
	f.debug("page parsed", "index", index, "refs", len(refs))
	return refs, nil
}

func parseListing(doc *goquery.Document) []domain.ResultRef {
	var refs []domain.ResultRef
	doc.Find("ul.list_news > li").Each(func(_ int, item *goquery.Selection) {
		ref, ok := parseListItem(item)
		if !ok {
			return
		}
		ref.OriginURL = resolve(doc, ref.OriginURL)
		ref.DetailURL = resolve(doc, ref.DetailURL)
		refs = append(refs, ref)
	})
	return refs
}

// parseListItem reports false for items that have no detail page.
func parseListItem(item *goquery.Selection) (domain.ResultRef, bool) {
	infos := item.Find("a.info")
	if infos.Length() != 2 {
		return domain.ResultRef{}, false
	}
	detailURL, ok := infos.Eq(1).Attr("href")
	if !ok || strings.TrimSpace(detailURL) == "" {
		return domain.ResultRef{}, false
	}

	titleLink := item.Find("a.news_tit").First()
	title, _ := titleLink.Attr("title")
	if title == "" {
		title = titleLink.Text()
	}
	origin, _ := titleLink.Attr("href")

	press := strings.TrimSpace(item.Find("a.info.press").First().Text())
	if item.Find("i.spnew.ico_pick").Length() > 0 {
		press = strings.TrimSpace(strings.TrimSuffix(press, pickLabel))
	}

	return domain.ResultRef{
		Title:     strings.TrimSpace(title),
		Source:    press,
		OriginURL: origin,
		DetailURL: detailURL,
	}, true
}

func buildPageURL(base, terms string, index, stride int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("where", "news")
	query.Set("query", terms)
	query.Set("nso", "so:dd,p:all")
	query.Set("start", strconv.Itoa(index*stride+1))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (f *SearchPageFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
