package executor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(updates chan *ExecutorUpdate) func() []*ExecutorUpdate {
	done := make(chan []*ExecutorUpdate)
	go func() {
		var got []*ExecutorUpdate
		for u := range updates {
			got = append(got, u)
		}
		done <- got
	}()
	return func() []*ExecutorUpdate {
		close(updates)
		return <-done
	}
}

func TestRunsStepsInOrder(t *testing.T) {
	var order []string
	e := NewExecutor()
	e.AddStep(NewStep(steps.STEP_OPEN, func(ctx context.Context, u chan<- *ExecutorUpdate) error {
		order = append(order, "open")
		u <- &ExecutorUpdate{StepMessage: "opened"}
		return nil
	}))
	e.AddStep(NewStep(steps.STEP_DNS, func(ctx context.Context, u chan<- *ExecutorUpdate) error {
		order = append(order, "dns")
		u <- &ExecutorUpdate{CurrentStep: steps.STEP_PUSH_SUMMARY, StepMessage: "added www"}
		return nil
	}))

	updates := make(chan *ExecutorUpdate)
	finish := collect(updates)
	require.NoError(t, e.Run(updates))
	got := finish()

	assert.Equal(t, []string{"open", "dns"}, order)
	assert.False(t, e.IsRunning())
	assert.Equal(t, []*ExecutorUpdate{
		{CurrentStep: steps.STEP_OPEN},
		{CurrentStep: steps.STEP_OPEN, StepMessage: "opened"},
		{CurrentStep: steps.STEP_DNS},
		{CurrentStep: steps.STEP_PUSH_SUMMARY, StepMessage: "added www"},
	}, got)
}

func TestFailingStepStops(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	e := NewExecutor()
	e.AddStep(NewStep(steps.STEP_OPEN, func(ctx context.Context, u chan<- *ExecutorUpdate) error { return boom }))
	e.AddStep(NewStep(steps.STEP_DNS, func(ctx context.Context, u chan<- *ExecutorUpdate) error {
		ran = true
		return nil
	}))

	updates := make(chan *ExecutorUpdate)
	finish := collect(updates)
	err := e.Run(updates)
	got := finish()

	assert.True(t, errors.Is(err, boom))
	assert.False(t, ran)
	require.NotEmpty(t, got)
	assert.Equal(t, &ExecutorUpdate{CurrentStep: steps.STEP_ERROR, StepMessage: "boom"}, got[len(got)-1])
	assert.ErrorIs(t, e.Tick(), ErrNotStarted)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewExecutor()
	e.SetContext(ctx)
	e.AddStep(NewStep(steps.STEP_OPEN, func(ctx context.Context, u chan<- *ExecutorUpdate) error { return nil }))

	updates := make(chan *ExecutorUpdate)
	finish := collect(updates)
	err := e.Run(updates)
	finish()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTickBeforeStart(t *testing.T) {
	assert.ErrorIs(t, NewExecutor().Tick(), ErrNotStarted)
}
