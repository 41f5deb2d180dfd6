package olx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/common"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/retry"
)

const (
	sourceName            = "olx"
	userAgent             = "Mozilla/5.0"
	defaultRequestTimeout = 20 * time.Second
	pageFetchLimit        = 4
)

// Scraper fetches one OLX search result page set and extracts its ad cards.
// One Scraper instance corresponds to one configured watch; multiple watches
// against the same site share the seen set through the "olx" source prefix.
type Scraper struct {
	client *http.Client
	logger *slog.Logger

	name      string
	searchURL string
	pages     int
	timeout   time.Duration
	filter    common.Filter
}

type Config struct {
	Name     string
	URL      string
	Pages    int
	Keywords []string
	MinPrice int64
	MaxPrice int64
	Timeout  time.Duration
}

func New(client *http.Client, logger *slog.Logger, cfg Config) (*Scraper, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("olx watch %q: search URL is required", cfg.Name)
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("olx watch %q: invalid search URL: %w", cfg.Name, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	pages := cfg.Pages
	if pages <= 0 {
		pages = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Scraper{
		client:    client,
		logger:    logger,
		name:      cfg.Name,
		searchURL: cfg.URL,
		pages:     pages,
		timeout:   timeout,
		filter: common.Filter{
			Keywords: cfg.Keywords,
			MinPrice: cfg.MinPrice,
			MaxPrice: cfg.MaxPrice,
		},
	}, nil
}

func (s *Scraper) Name() string {
	return s.name
}

// Fetch retrieves the configured number of result pages. Page one is
// mandatory: if it cannot be fetched the whole watch fails for this cycle and
// the caller skips it (the diff runs again next tick). Further pages are
// opportunistic and only logged on failure.
func (s *Scraper) Fetch(ctx context.Context) ([]model.Listing, error) {
	first, err := s.fetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("page fetched", "watch", s.name, "page", 1, "listings", len(first))
	if s.pages <= 1 {
		return first, nil
	}

	listings := make([]model.Listing, 0, len(first)*s.pages)
	listings = append(listings, first...)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(pageFetchLimit)

	var mu sync.Mutex
	for page := 2; page <= s.pages; page++ {
		page := page
		group.Go(func() error {
			pageListings, err := s.fetchPage(gctx, page)
			if err != nil {
				s.logger.Warn("page fetch failed", "watch", s.name, "page", page, "error", err)
				return nil
			}
			s.logger.Debug("page fetched", "watch", s.name, "page", page, "listings", len(pageListings))
			mu.Lock()
			listings = append(listings, pageListings...)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	return listings, nil
}

func (s *Scraper) fetchPage(ctx context.Context, page int) ([]model.Listing, error) {
	pageURL, err := buildPageURL(s.searchURL, page)
	if err != nil {
		return nil, err
	}

	var doc *goquery.Document
	err = retry.Do(ctx, retry.Policy{Attempts: 2, BaseDelay: time.Second}, func() error {
		fetched, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			return err
		}
		doc = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	return extractListings(doc, s.searchURL, s.filter), nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func buildPageURL(searchURL string, page int) (string, error) {
	if page <= 1 {
		return searchURL, nil
	}
	parsed, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// extractListings walks the result cards. Selection prefers OLX's stable
// data attributes and falls back to structural guesses when the markup
// changes, the same ladder the bot has used since the olx.ua redesign:
// heading inside div[data-cy=ad-card-title], else any h4/h3/h6; the first
// anchor that looks like an ad link; p[data-testid=ad-price], else first p.
func extractListings(doc *goquery.Document, searchURL string, filter common.Filter) []model.Listing {
	base, _ := url.Parse(searchURL)
	now := time.Now().UTC()

	var listings []model.Listing
	doc.Find("div[data-cy='l-card']").Each(func(_ int, card *goquery.Selection) {
		title, href, price := extractCard(card)
		if title == "" || href == "" {
			return
		}
		if !filter.Match(title, price) {
			return
		}

		id, ok := card.Attr("id")
		if !ok || id == "" {
			id = href
		}

		listings = append(listings, model.Listing{
			Source: sourceName,
			ID:     id,
			Title:  title,
			Price:  price,
			URL:    resolveURL(base, href),
			SeenAt: now,
		})
	})
	return listings
}

func extractCard(card *goquery.Selection) (title, href, price string) {
	container := card.Find("div[data-cy='ad-card-title']").First()
	if container.Length() > 0 {
		heading := container.Find("h4").First()
		if heading.Length() == 0 {
			heading = container.Find("h3").First()
		}
		title = trimmedText(heading)

		if link := container.Find("a[href]").First(); link.Length() > 0 {
			href, _ = link.Attr("href")
		}
		price = trimmedText(card.Find("p[data-testid='ad-price']").First())
	} else {
		title = trimmedText(card.Find("h4, h3, h6").First())
		card.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			candidate, _ := link.Attr("href")
			if strings.HasPrefix(candidate, "/d/") || strings.HasPrefix(candidate, "http") {
				href = candidate
				return false
			}
			return true
		})
		priceSel := card.Find("p[data-testid='ad-price']").First()
		if priceSel.Length() == 0 {
			priceSel = card.Find("p").First()
		}
		price = trimmedText(priceSel)
	}

	if price == "" {
		price = "N/A"
	}
	return title, href, price
}

func trimmedText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
