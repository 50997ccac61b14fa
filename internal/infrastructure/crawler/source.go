package crawler

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

//go:embed seeds.yaml
var seedsYAML []byte

const (
	crawlerUserAgent    = "Mozilla/5.0 (Fashion Compliance Crawler)"
	paragraphsPerSource = 3
	minParagraphRunes   = 50
	minCrawledResults   = 5
)

type seedFile struct {
	Sources  []seedSource `yaml:"sources"`
	Fallback []regulation `yaml:"fallback"`
}

type seedSource struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

type regulation struct {
	Title     string `yaml:"title" json:"title"`
	Source    string `yaml:"source" json:"source"`
	Category  string `yaml:"category" json:"category"`
	Content   string `yaml:"content" json:"content"`
	URL       string `yaml:"url" json:"url"`
	CrawledAt string `yaml:"-" json:"crawled_at,omitempty"`
}

// Source supplies seed regulation documents: freshly crawled from the
// configured live sources when reachable, otherwise from the curated
// fallback set. Results are cached on disk between runs.
type Source struct {
	sources    []seedSource
	fallback   []regulation
	cachePath  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Options struct {
	RatePerSecond float64
	FetchTimeout  time.Duration
	CachePath     string
}

func NewSource(opts Options, logger *slog.Logger) (*Source, error) {
	var seeds seedFile
	if err := yaml.Unmarshal(seedsYAML, &seeds); err != nil {
		return nil, fmt.Errorf("parse embedded seed file: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Source{
		sources:    seeds.Sources,
		fallback:   seeds.Fallback,
		cachePath:  opts.CachePath,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:     logger,
	}, nil
}

func (s *Source) Load(ctx context.Context) ([]domain.Document, error) {
	if cached, ok := s.readCache(); ok {
		return toDocuments(cached), nil
	}

	regulations := s.crawl(ctx)
	s.writeCache(regulations)
	return toDocuments(regulations), nil
}

func (s *Source) crawl(ctx context.Context) []regulation {
	regulations := make([]regulation, 0, len(s.sources)*paragraphsPerSource)

	for _, src := range s.sources {
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}

		paragraphs, err := s.fetchParagraphs(ctx, src.URL)
		if err != nil {
			s.logger.Warn("crawl_source_failed", "source", src.Name, "url", src.URL, "error", err)
			continue
		}

		if len(paragraphs) > paragraphsPerSource {
			paragraphs = paragraphs[:paragraphsPerSource]
		}
		for _, paragraph := range paragraphs {
			regulations = append(regulations, regulation{
				Title:     src.Name,
				Source:    src.Name,
				Category:  "EU Regulation",
				Content:   paragraph,
				URL:       src.URL,
				CrawledAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	// Live sources are best-effort; the curated set keeps ingestion useful.
	if len(regulations) < minCrawledResults {
		regulations = append(regulations, s.fallback...)
	}
	return regulations
}

func (s *Source) fetchParagraphs(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", crawlerUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}

	return extractParagraphs(resp.Body)
}

// extractParagraphs pulls the text of p/li/h2/h3 elements longer than
// minParagraphRunes from an HTML document, in document order.
func extractParagraphs(r io.Reader) ([]string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "li", "h2", "h3":
				text := strings.Join(strings.Fields(nodeText(n)), " ")
				if len([]rune(text)) > minParagraphRunes {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return paragraphs, nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(nodeText(child))
	}
	return b.String()
}

func (s *Source) readCache() ([]regulation, bool) {
	if s.cachePath == "" {
		return nil, false
	}
	raw, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, false
	}
	var regulations []regulation
	if err := json.Unmarshal(raw, &regulations); err != nil {
		s.logger.Warn("crawler_cache_unreadable", "path", s.cachePath, "error", err)
		return nil, false
	}
	if len(regulations) == 0 {
		return nil, false
	}
	return regulations, true
}

func (s *Source) writeCache(regulations []regulation) {
	if s.cachePath == "" || len(regulations) == 0 {
		return
	}
	raw, err := json.MarshalIndent(regulations, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.cachePath, raw, 0o644); err != nil {
		s.logger.Warn("crawler_cache_write_failed", "path", s.cachePath, "error", err)
	}
}

func toDocuments(regulations []regulation) []domain.Document {
	docs := make([]domain.Document, 0, len(regulations))
	for _, reg := range regulations {
		content := strings.TrimSpace(reg.Content)
		if content == "" {
			continue
		}
		source := reg.Source
		if source == "" {
			source = "crawler"
		}
		category := reg.Category
		if category == "" {
			category = domain.DefaultCategory
		}
		docs = append(docs, domain.Document{
			Text:     content,
			Source:   source,
			URL:      reg.URL,
			Category: category,
		})
	}
	return docs
}
