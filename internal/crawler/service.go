package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/qyve/storefront/pkg/db/models"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/pagination"
)

const defaultMinScore = 2

type pageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

type Config struct {
	Sources  []string
	MaxPages int
	MinScore int
}

// RunResult summarizes one crawl. Errors lists per-source failures; the run
// keeps going past them.
type RunResult struct {
	Sources    int       `json:"sources"`
	Pages      int       `json:"pages"`
	Fetched    int       `json:"fetched"`
	Stored     int       `json:"stored"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type ArticleDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"image_url,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type Service interface {
	Run(ctx context.Context) (*RunResult, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[ArticleDTO], error)
}

type service struct {
	repo    Repository
	fetcher pageFetcher
	cfg     Config
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, fetcher pageFetcher, cfg Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("crawler repository required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = defaultMinScore
	}
	return &service{repo: repo, fetcher: fetcher, cfg: cfg, logg: logg, now: time.Now}, nil
}

// Run crawls every source in turn. The returned error combines the failures
// of individual sources; the result is always populated.
func (s *service) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{StartedAt: s.now().UTC()}
	var errs error
	for _, source := range s.cfg.Sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		result.Sources++
		if err := s.crawlSource(ctx, source, result); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("source %s: %w", source, err))
		}
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
	}
	for _, err := range multierr.Errors(errs) {
		result.Errors = append(result.Errors, err.Error())
	}
	result.FinishedAt = s.now().UTC()

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"sources": result.Sources,
		"pages":   result.Pages,
		"fetched": result.Fetched,
		"stored":  result.Stored,
		"errors":  len(result.Errors),
	}), "crawler run finished")
	return result, errs
}

func (s *service) crawlSource(ctx context.Context, source string, result *RunResult) error {
	base, err := url.Parse(source)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return fmt.Errorf("invalid source url")
	}
	host := base.Hostname()

	var errs error
	for page := 1; page <= s.cfg.MaxPages; page++ {
		pageURL := withPage(base, page)
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return multierr.Append(errs, err)
		}
		result.Pages++

		articles, err := ParseArticles(bytes.NewReader(body), base)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("parse page %d: %w", page, err))
		}
		if len(articles) == 0 {
			break
		}
		result.Fetched += len(articles)

		for _, article := range articles {
			score := Score(article)
			if score < s.cfg.MinScore {
				continue
			}
			err := s.repo.Upsert(ctx, &models.CrawledArticle{
				URL:      article.URL,
				Title:    truncate(article.Title, 300),
				Summary:  truncate(article.Summary, 1000),
				ImageURL: article.ImageURL,
				Source:   host,
				Score:    score,
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("store %s: %w", article.URL, err))
				continue
			}
			result.Stored++
		}
	}
	return errs
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[ArticleDTO], error) {
	rows, offset, err := s.repo.List(ctx, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return pagination.Page[ArticleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return pagination.Page[ArticleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list articles")
	}
	page := pagination.BuildOffset(rows, params.Limit, offset)
	out := pagination.Page[ArticleDTO]{Items: make([]ArticleDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, row := range page.Items {
		out.Items = append(out.Items, ArticleDTO{
			ID:        row.ID.String(),
			Title:     row.Title,
			URL:       row.URL,
			ImageURL:  row.ImageURL,
			Summary:   row.Summary,
			Source:    row.Source,
			Score:     row.Score,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func withPage(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
