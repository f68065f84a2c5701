package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	held     bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  m,
	})
	require.NoError(t, err)
	return service
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)
	service := newTestService(t, &fakeLock{}, m, success, failure)

	require.NoError(t, service.runCycle(context.Background()))
	require.Equal(t, 1, success.runs)
	require.Equal(t, 1, failure.runs)

	count, err := testutil.GatherAndCount(reg, "qyve_job_failure_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestServiceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "outbox-retention"}
	reg := prometheus.NewRegistry()
	service := newTestService(t, &fakeLock{held: true}, metrics.NewCronJobMetrics(reg), job)

	require.NoError(t, service.runCycle(context.Background()))
	require.Zero(t, job.runs)

	count, err := testutil.GatherAndCount(reg, "qyve_job_skipped_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestServiceDefaultsInterval(t *testing.T) {
	service := newTestService(t, &fakeLock{}, nil)
	require.Equal(t, defaultInterval, service.interval)

	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)
}
