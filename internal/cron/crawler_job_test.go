package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qyve/storefront/internal/crawler"
	"github.com/qyve/storefront/pkg/logger"
)

type fakeCrawler struct {
	result *crawler.RunResult
	err    error
	runs   int
}

func (f *fakeCrawler) Run(context.Context) (*crawler.RunResult, error) {
	f.runs++
	return f.result, f.err
}

func TestCrawlerJobRuns(t *testing.T) {
	runner := &fakeCrawler{result: &crawler.RunResult{Stored: 3}}
	job, err := NewCrawlerJob(logger.New(logger.Options{Output: io.Discard}), runner)
	require.NoError(t, err)

	require.Equal(t, "article-crawler", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, runner.runs)
}

func TestCrawlerJobSurfacesSourceErrors(t *testing.T) {
	runner := &fakeCrawler{result: &crawler.RunResult{Stored: 1}, err: errors.New("source down")}
	job, err := NewCrawlerJob(logger.New(logger.Options{Output: io.Discard}), runner)
	require.NoError(t, err)

	require.ErrorContains(t, job.Run(context.Background()), "source down")
}

func TestNewCrawlerJobValidation(t *testing.T) {
	_, err := NewCrawlerJob(nil, &fakeCrawler{})
	require.Error(t, err)
	_, err = NewCrawlerJob(logger.New(logger.Options{Output: io.Discard}), nil)
	require.Error(t, err)
}
