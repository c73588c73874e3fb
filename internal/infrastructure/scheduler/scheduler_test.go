package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/timeutil"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job" }

func (j *stubJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(Config{Logger: logger.New(logger.Options{Level: logger.LevelError})})
}

func TestIntervalSchedule(t *testing.T) {
	s := Every(15 * time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(15*time.Minute), s.Next(now))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestDailyAtSchedule(t *testing.T) {
	s := DailyAt(4, 30, timeutil.CampusTZ)

	t.Run("before the wall-clock time runs same day", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 2, 0, 0, 0, timeutil.CampusTZ)
		next := s.Next(now)
		assert.Equal(t, time.Date(2026, 3, 10, 4, 30, 0, 0, timeutil.CampusTZ), next)
	})

	t.Run("after the wall-clock time rolls to the next day", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 23, 0, 0, 0, timeutil.CampusTZ)
		next := s.Next(now)
		assert.Equal(t, time.Date(2026, 3, 11, 4, 30, 0, 0, timeutil.CampusTZ), next)
	})

	t.Run("exactly at the wall-clock time rolls forward", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 4, 30, 0, 0, timeutil.CampusTZ)
		next := s.Next(now)
		assert.Equal(t, time.Date(2026, 3, 11, 4, 30, 0, 0, timeutil.CampusTZ), next)
	})
}

func TestSchedulerRegister(t *testing.T) {
	t.Run("rejects nil job and nil schedule", func(t *testing.T) {
		s := newTestScheduler()
		assert.ErrorIs(t, s.Register(nil, Every(time.Minute)), ErrNilJob)
		assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, nil), ErrNilSchedule)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		s := newTestScheduler()
		require.NoError(t, s.Register(&stubJob{name: "a"}, Every(time.Minute)))
		assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, Every(time.Minute)), ErrJobAlreadyExists)
	})

	t.Run("lists registered jobs", func(t *testing.T) {
		s := newTestScheduler()
		require.NoError(t, s.Register(&stubJob{name: "a"}, Every(time.Minute)))
		require.NoError(t, s.Register(&stubJob{name: "b"}, Every(time.Hour)))

		infos := s.ListJobs()
		assert.Len(t, infos, 2)
		for _, info := range infos {
			assert.True(t, info.Enabled)
			assert.False(t, info.NextRun.IsZero())
		}
	})
}

func TestSchedulerRunNow(t *testing.T) {
	t.Run("executes the job immediately", func(t *testing.T) {
		s := newTestScheduler()
		job := &stubJob{name: "a"}
		require.NoError(t, s.Register(job, Every(time.Hour)))

		result, err := s.RunNow(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, job.runs)
	})

	t.Run("propagates the job error", func(t *testing.T) {
		s := newTestScheduler()
		jobErr := errors.New("boom")
		require.NoError(t, s.Register(&stubJob{name: "a", err: jobErr}, Every(time.Hour)))

		result, err := s.RunNow(context.Background(), "a")
		assert.ErrorIs(t, err, jobErr)
		require.NotNil(t, result)
		assert.False(t, result.Success)
	})

	t.Run("unknown job name", func(t *testing.T) {
		s := newTestScheduler()
		_, err := s.RunNow(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&stubJob{name: "a"}, Every(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordExecution("a", time.Second, true)
	m.RecordExecution("a", time.Second, false)
	m.RecordExecution("b", time.Second, true)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalExecutions)
	assert.Equal(t, int64(2), snap.TotalSuccesses)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.InDelta(t, 2.0/3.0, snap.SuccessRate, 0.001)
}
