package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://search.naver.com/search.naver"
	u, err := buildPageURL(base, "반도체 | 배터리 -주가", 3, 10)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Host != "search.naver.com" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("query") != "반도체 | 배터리 -주가" {
		t.Fatalf("unexpected query: %q", q.Get("query"))
	}
	if q.Get("start") != "31" {
		t.Fatalf("expected start=31, got %s", q.Get("start"))
	}
	if q.Get("where") != "news" {
		t.Fatalf("expected where=news, got %s", q.Get("where"))
	}
}

func TestParseListItem(t *testing.T) {
	t.Parallel()

	html := `
	<ul class="list_news">
	  <li>
	    <a class="info press">연합뉴스<i class="spnew ico_pick"></i>언론사 선정</a>
	    <a class="info" href="https://n.news.example/article/001">네이버뉴스</a>
	    <a class="news_tit" href="https://origin.example/1" title="배터리 공장 증설">배터리 공장 증설</a>
	  </li>
	  <li>
	    <a class="info press">지역일보</a>
	    <a class="news_tit" href="https://origin.example/2" title="링크 없는 기사">링크 없는 기사</a>
	  </li>
	</ul>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	items := doc.Find("ul.list_news > li")

	ref, ok := parseListItem(items.Eq(0))
	if !ok {
		t.Fatal("expected first item to carry a detail url")
	}
	if ref.Title != "배터리 공장 증설" {
		t.Fatalf("unexpected title: %s", ref.Title)
	}
	if ref.Source != "연합뉴스" {
		t.Fatalf("unexpected source: %q", ref.Source)
	}
	if ref.DetailURL != "https://n.news.example/article/001" {
		t.Fatalf("unexpected detail url: %s", ref.DetailURL)
	}
	if ref.OriginURL != "https://origin.example/1" {
		t.Fatalf("unexpected origin url: %s", ref.OriginURL)
	}

	if _, ok := parseListItem(items.Eq(1)); ok {
		t.Fatal("expected item without detail link to be dropped")
	}
}

func TestSearchPageFetcherFetchPage(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<ul class="list_news">
		  <li>
		    <a class="info press">한국경제</a>
		    <a class="info" href="/article/7">네이버뉴스</a>
		    <a class="news_tit" href="https://origin.example/7" title="제목 7">제목 7</a>
		  </li>
		  <li><a class="info press">없음</a></li>
		</ul>`)
	}))
	defer server.Close()

	f := NewSearchPageFetcher(server.Client(), config.SearchConfig{BaseURL: server.URL + "/search.naver"}, nil)

	refs, err := f.FetchPage(context.Background(), "반도체", 1)
	if err != nil {
		t.Fatalf("FetchPage error: %v", err)
	}

	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if refs[0].DetailURL != server.URL+"/article/7" {
		t.Fatalf("expected resolved detail url, got %s", refs[0].DetailURL)
	}
	if gotQuery.Get("start") != "11" {
		t.Fatalf("expected start=11, got %s", gotQuery.Get("start"))
	}
}

func TestSearchPageFetcherConnectivity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewSearchPageFetcher(server.Client(), config.SearchConfig{BaseURL: server.URL}, nil)
	if _, err := f.FetchPage(context.Background(), "x", 0); !domain.IsConnectivity(err) {
		t.Fatalf("expected connectivity error for 503, got %v", err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	f = NewSearchPageFetcher(nil, config.SearchConfig{BaseURL: closedURL}, nil)
	if _, err := f.FetchPage(context.Background(), "x", 0); !domain.IsConnectivity(err) {
		t.Fatalf("expected connectivity error for refused connection, got %v", err)
	}
}
