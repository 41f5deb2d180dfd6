package olx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/common"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div data-testid="listing-grid">
  <div data-cy="l-card" id="810370785">
    <div data-cy="ad-card-title" class="css-1g61gc2">
      <a class="css-qo0cxu" href="/d/uk/obyavlenie/sony-playstation-tv-IDWqXvR.html">
        <h4 class="css-1sq4ur2">Sony PlayStation TV (PS Vita TV)</h4>
      </a>
    </div>
    <p data-testid="ad-price" class="css-uj7mm0">2 500 грн.</p>
  </div>
  <div data-cy="l-card" id="811111111">
    <a href="#favorite">save</a>
    <a href="/d/uk/obyavlenie/pristavka-sony-ps-vita-IDXyZ12.html"><h6>Приставка Sony PS Vita</h6></a>
    <p>1 200 грн.</p>
  </div>
  <div data-cy="l-card">
    <div data-cy="ad-card-title">
      <a href="https://www.olx.ua/d/uk/obyavlenie/playstation-vita-slim-IDAbC34.html"><h3>PlayStation Vita Slim</h3></a>
    </div>
  </div>
  <div data-cy="l-card" id="813333333">
    <div class="promo-banner">Дізнайтесь більше про доставку OLX</div>
  </div>
</div>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractListings(t *testing.T) {
	doc := parseDoc(t, resultsPage)
	listings := extractListings(doc, "https://www.olx.ua/uk/list/q-playstation-tv/", common.Filter{})

	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3 (promo card skipped)", len(listings))
	}

	first := listings[0]
	if first.Source != "olx" {
		t.Errorf("source = %q, want olx", first.Source)
	}
	if first.ID != "810370785" {
		t.Errorf("id = %q, want card id attribute", first.ID)
	}
	if first.Title != "Sony PlayStation TV (PS Vita TV)" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Price != "2 500 грн." {
		t.Errorf("price = %q", first.Price)
	}
	if first.URL != "https://www.olx.ua/d/uk/obyavlenie/sony-playstation-tv-IDWqXvR.html" {
		t.Errorf("url = %q, relative href not resolved", first.URL)
	}
	if first.SeenAt.IsZero() {
		t.Error("seen_at not set")
	}

	fallback := listings[1]
	if fallback.Title != "Приставка Sony PS Vita" {
		t.Errorf("fallback title = %q", fallback.Title)
	}
	if fallback.Price != "1 200 грн." {
		t.Errorf("fallback price = %q, want first paragraph text", fallback.Price)
	}
	if fallback.URL != "https://www.olx.ua/d/uk/obyavlenie/pristavka-sony-ps-vita-IDXyZ12.html" {
		t.Errorf("fallback url = %q, favorite anchor not skipped", fallback.URL)
	}

	noID := listings[2]
	if noID.ID != "https://www.olx.ua/d/uk/obyavlenie/playstation-vita-slim-IDAbC34.html" {
		t.Errorf("id = %q, want href fallback", noID.ID)
	}
	if noID.Price != "N/A" {
		t.Errorf("price = %q, want N/A for missing price", noID.Price)
	}
}

func TestExtractListings_KeywordFilter(t *testing.T) {
	doc := parseDoc(t, resultsPage)
	listings := extractListings(doc, "https://www.olx.ua/uk/list/q-playstation-tv/", common.Filter{
		Keywords: []string{"tv"},
	})

	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	if listings[0].ID != "810370785" {
		t.Errorf("id = %q, want the TV card", listings[0].ID)
	}
}

func TestExtractListings_PriceFilter(t *testing.T) {
	doc := parseDoc(t, resultsPage)
	listings := extractListings(doc, "https://www.olx.ua/uk/list/q-playstation-tv/", common.Filter{
		MaxPrice: 2000,
	})

	// 2 500 грн. card excluded; the N/A card passes because its price does
	// not parse.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	for _, listing := range listings {
		if listing.ID == "810370785" {
			t.Error("card above max price not filtered")
		}
	}
}

func TestBuildPageURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		page int
		want string
	}{
		{"page one untouched", "https://www.olx.ua/uk/list/q-tv/", 1, "https://www.olx.ua/uk/list/q-tv/"},
		{"page param added", "https://www.olx.ua/uk/list/q-tv/", 3, "https://www.olx.ua/uk/list/q-tv/?page=3"},
		{"existing query kept", "https://www.olx.ua/uk/list/q-tv/?search%5Border%5D=created_at%3Adesc", 2, "https://www.olx.ua/uk/list/q-tv/?page=2&search%5Border%5D=created_at%3Adesc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPageURL(tt.url, tt.page)
			if err != nil {
				t.Fatalf("buildPageURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(http.DefaultClient, testLogger(), Config{Name: "w"}); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := New(http.DefaultClient, testLogger(), Config{Name: "w", URL: "не-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestFetch_MultiplePages(t *testing.T) {
	var mu sync.Mutex
	pages := make(map[string]int)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Mozilla/5.0" {
			t.Errorf("user agent = %q", got)
		}
		mu.Lock()
		pages[r.URL.Query().Get("page")]++
		mu.Unlock()
		fmt.Fprint(w, resultsPage)
	}))
	defer server.Close()

	scraper, err := New(server.Client(), testLogger(), Config{
		Name:  "vita",
		URL:   server.URL + "/uk/list/q-playstation-tv/",
		Pages: 3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	listings, err := scraper.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(listings) != 9 {
		t.Errorf("got %d listings, want 9 (3 per page)", len(listings))
	}

	mu.Lock()
	defer mu.Unlock()
	if pages[""] != 1 || pages["2"] != 1 || pages["3"] != 1 {
		t.Errorf("page requests = %v, want one request each for pages 1..3", pages)
	}
}

func TestFetch_FirstPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	scraper, err := New(server.Client(), testLogger(), Config{
		Name:  "vita",
		URL:   server.URL + "/uk/list/q-playstation-tv/",
		Pages: 2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := scraper.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when the first page cannot be fetched")
	}
}

func TestFetch_LaterPageFailureIsTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, resultsPage)
	}))
	defer server.Close()

	scraper, err := New(server.Client(), testLogger(), Config{
		Name:  "vita",
		URL:   server.URL + "/uk/list/q-playstation-tv/",
		Pages: 2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	listings, err := scraper.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(listings) != 3 {
		t.Errorf("got %d listings, want 3 (first page only)", len(listings))
	}
}
