package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/reachout/internal/bypass"
	"github.com/FranksOps/reachout/internal/fingerprint"
	"github.com/FranksOps/reachout/pkg/httpclient"
	"github.com/FranksOps/reachout/pkg/proxy"
	"github.com/FranksOps/reachout/pkg/useragent"
	"github.com/PuerkitoBio/goquery"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// maxBodySize caps how much of a results page we read.
const maxBodySize = 2 << 20

// GoogleConfig configures the scraping SERP provider.
type GoogleConfig struct {
	// BaseURL defaults to the public search endpoint; tests point it at a stub.
	BaseURL      string
	Timeout      time.Duration
	MaxRedirects int
	UAPool       *useragent.Pool
	ProxyPool    *proxy.Pool
	// Proxy selects the egress proxy for requests the rotating pool does not
	// cover. Defaults to http.ProxyFromEnvironment.
	Proxy       func(*http.Request) (*url.URL, error)
	Fingerprint fingerprint.Profile
	Logger      *slog.Logger
}

// Google is a Provider that scrapes the Google results page. It rotates
// User-Agents, optionally rotates proxies per request, and presents a browser
// TLS fingerprint to look less like a bot.
type Google struct {
	cfg    GoogleConfig
	client *httpclient.Client
}

// NewGoogle creates a scraping SERP provider.
// By holding a single client across requests, connections are pooled for the
// lifetime of the provider.
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.google.com/search"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The proxy is injected per request via the context so a single shared
	// transport can rotate proxies without being rebuilt.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if cfg.Proxy != nil {
			return cfg.Proxy(req)
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Google{cfg: cfg, client: client}, nil
}

// Search fetches one results page for the query and returns up to limit
// result URLs in page order. A blocked or non-200 response is a query-level
// error; the caller decides whether to move on to another query.
func (g *Google) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %d", limit)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("hl", "en")

	reqURL := g.cfg.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var activeProxy *url.URL
	if g.cfg.ProxyPool != nil {
		if activeProxy = g.cfg.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", g.cfg.UAPool.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := g.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = g.cfg.ProxyPool.MarkFailure(activeProxy)
		}
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = g.cfg.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read results page: %w", err)
	}

	if source, blocked := bypass.Analyze(&bypass.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, bypass.DefaultDetectors()); blocked {
		g.cfg.Logger.Warn("search blocked", "source", source, "query", query)
		return nil, fmt.Errorf("search blocked by %s", source)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	return parseResults(body, limit)
}

// parseResults extracts outbound result links from the page. Result anchors
// come in two shapes: redirect links of the form /url?q=<target> and, on some
// page variants, direct absolute links.
func parseResults(body []byte, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var results []Result
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")

		target := ""
		switch {
		case strings.HasPrefix(href, "/url?"):
			if u, err := url.Parse(href); err == nil {
				target = u.Query().Get("q")
			}
		case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
			target = href
		}

		if target == "" || !strings.HasPrefix(target, "http") {
			return true
		}
		if u, err := url.Parse(target); err != nil || strings.Contains(u.Hostname(), "google.") {
			// Internal navigation, cache links and the like.
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}

		seen[target] = struct{}{}
		results = append(results, Result{URL: target})
		return len(results) < limit
	})

	return results, nil
}
