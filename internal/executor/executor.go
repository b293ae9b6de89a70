package executor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/steps"
)

var (
	ErrFinished   = errors.New("executor finished")
	ErrNotStarted = errors.New("executor is not running")
)

// Executor runs its steps in the order they were added, one per Tick().
// Start() takes the channel status updates are relayed to by a pump goroutine; a step
// reports progress by sending on the channel it is given, and must not keep it after
// returning. A step returning an error is reported as an "error" update, stops the
// executor and is returned by Tick().
// The updates channel is not closed by the executor; once Tick() returned an error
// nothing is sent on it anymore.
type Executor struct {
	Steps       []*Step
	currentstep int
	ctx         context.Context
	running     bool
	updateschan chan<- *ExecutorUpdate
	stepchan    chan *ExecutorUpdate
	pumpdone    chan struct{}
}

type ExecutorUpdate struct {
	CurrentStep string
	StepMessage string
}

func NewExecutor() *Executor {
	return &Executor{ctx: context.Background(), Steps: make([]*Step, 0)}
}

func (e *Executor) SetContext(ctx context.Context) {
	if !e.running {
		e.ctx = ctx
	}
}

func (e *Executor) AddStep(step *Step) {
	if !e.running {
		e.Steps = append(e.Steps, step)
	}
}

func (e *Executor) Start(updates chan<- *ExecutorUpdate) {
	if e.running {
		return
	}
	e.running = true
	e.currentstep = 0
	e.stepchan = make(chan *ExecutorUpdate)
	e.pumpdone = make(chan struct{})
	e.updateschan = updates
	go func() {
		defer close(e.pumpdone)
		for msg := range e.stepchan {
			e.updateschan <- msg
		}
	}()
}

func (e *Executor) IsRunning() bool {
	return e.running
}

func (e *Executor) stop() {
	e.running = false
	close(e.stepchan)
	<-e.pumpdone
}

func (e *Executor) Tick() error {
	if !e.running {
		return ErrNotStarted
	}
	if err := e.ctx.Err(); err != nil {
		e.stop()
		return err
	}
	if e.currentstep >= len(e.Steps) {
		e.stop()
		return ErrFinished
	}
	step := e.Steps[e.currentstep]
	e.stepchan <- &ExecutorUpdate{CurrentStep: step.Id}

	// updates without a step id are attributed to the running step
	relay := make(chan *ExecutorUpdate)
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		for msg := range relay {
			if msg.CurrentStep == "" {
				msg.CurrentStep = step.Id
			}
			e.stepchan <- msg
		}
	}()
	err := step.Exec(e.ctx, relay)
	close(relay)
	<-relayed

	if err != nil {
		e.stepchan <- &ExecutorUpdate{CurrentStep: steps.STEP_ERROR, StepMessage: err.Error()}
		e.stop()
		return errors.Wrapf(err, "step %s", step.Id)
	}
	e.currentstep++
	return nil
}

// Run starts the executor and ticks until every step ran or one failed.
func (e *Executor) Run(updates chan<- *ExecutorUpdate) error {
	e.Start(updates)
	for {
		err := e.Tick()
		if errors.Is(err, ErrFinished) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
