package cron

import (
	"context"
	"fmt"

	"github.com/qyve/storefront/internal/crawler"
	"github.com/qyve/storefront/pkg/logger"
)

type crawlerRunner interface {
	Run(ctx context.Context) (*crawler.RunResult, error)
}

type crawlerJob struct {
	logg    *logger.Logger
	crawler crawlerRunner
}

// NewCrawlerJob refreshes the article feed. Register it only when the crawler
// is enabled.
func NewCrawlerJob(logg *logger.Logger, runner crawlerRunner) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if runner == nil {
		return nil, fmt.Errorf("crawler required")
	}
	return &crawlerJob{logg: logg, crawler: runner}, nil
}

func (j *crawlerJob) Name() string { return "article-crawler" }

// Run reports an error when any source failed; articles from healthy sources
// are still stored.
func (j *crawlerJob) Run(ctx context.Context) error {
	result, err := j.crawler.Run(ctx)
	if result != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"stored":  result.Stored,
			"fetched": result.Fetched,
		}), "crawler job finished")
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return nil
}
