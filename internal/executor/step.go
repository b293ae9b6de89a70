package executor

import "context"

// Step is one discrete part of a bigger task. Make one with NewStep and feed it to an executor.
type Step struct {
	Id string
	F  func(ctx context.Context, updates chan<- *ExecutorUpdate) error
}

func NewStep(id string, f func(ctx context.Context, updates chan<- *ExecutorUpdate) error) *Step {
	return &Step{Id: id, F: f}
}

func (s *Step) Exec(ctx context.Context, updates chan<- *ExecutorUpdate) error {
	return s.F(ctx, updates)
}
