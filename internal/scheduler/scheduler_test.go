package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	errs     []error // returned in order, then nil
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := int(j.calls.Add(1))
	if n <= len(j.errs) {
		return j.errs[n-1]
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, 0), WithLocation(time.FixedZone("WIB", 7*3600)))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "scan_morning", schedule: "0 30 8 * * 1-5"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "scan_afternoon", schedule: "@daily"}))

	err := s.AddJob(&fakeJob{name: "scan_morning", schedule: "0 30 8 * * 1-5"})
	assert.Error(t, err, "duplicate name")

	err = s.AddJob(&fakeJob{name: "broken", schedule: "every morning"})
	assert.Error(t, err, "invalid schedule")

	assert.Equal(t, []string{"scan_afternoon", "scan_morning"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJobSyncRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@hourly", errs: []error{errors.New("boom"), errors.New("boom")}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.EqualValues(t, 3, job.calls.Load())
}

func TestRunJobSyncGivesUp(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	job := &fakeJob{name: "broken", schedule: "@hourly", errs: []error{boom, boom, boom, boom}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "broken")
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "boom", result.Error)
}

func TestNoRetryStopsAfterFirstAttempt(t *testing.T) {
	s := newTestScheduler()
	cause := errors.New("already running")
	job := &fakeJob{name: "once", schedule: "@hourly", errs: []error{NoRetry(cause)}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "once")
	assert.Error(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.EqualValues(t, 1, job.calls.Load())

	assert.ErrorIs(t, NoRetry(cause), cause)
	assert.Nil(t, NoRetry(nil))
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()

	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobSync(context.Background(), "missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing", 5)
	assert.Error(t, err)
}

func TestJobStats(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "scan_afternoon", schedule: "0 30 16 * * 1-5", errs: []error{NoRetry(errors.New("x"))}}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunJobSync(context.Background(), "scan_afternoon")
	_, _ = s.RunJobSync(context.Background(), "scan_afternoon")

	stats := s.GetJobStats()
	require.Len(t, stats, 1)
	st := stats[0]
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	require.NotNil(t, st.LastSuccess)
	assert.Nil(t, st.LastFailure)
	require.NotNil(t, st.NextRun)

	next := st.NextRun.In(s.Location())
	assert.Equal(t, 16, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())

	history, err := s.GetJobHistory("scan_afternoon", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestJobHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetLatestResults(1000), maxHistory)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
