package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/pkg/logger"
)

type countingJob struct {
	runs int32
	err  error
}

func (j *countingJob) Run() error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error", Pretty: false}))
	err := s.AddJob("not a cron expression", &countingJob{})
	require.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error", Pretty: false}))
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))

	job.err = errors.New("boom")
	require.Error(t, s.RunNow(job))
}

func TestScheduledExecution(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error", Pretty: false}))
	job := &countingJob{}

	require.NoError(t, s.AddJob("@every 100ms", job))
	s.Start()
	defer s.Stop()

	deadline := time.After(3 * time.Second)
	for atomic.LoadInt32(&job.runs) == 0 {
		select {
		case <-deadline:
			t.Fatal("job never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
