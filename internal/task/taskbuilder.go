package task

import (
	"context"
	"strings"

	dnsadapters "github.com/sergds/ccpdns/internal/adapters/dns"
	"github.com/sergds/ccpdns/internal/executor"
	"github.com/sergds/ccpdns/internal/logger"
	"github.com/sergds/ccpdns/internal/playbook"
	"github.com/sergds/ccpdns/internal/propagation"
	"github.com/sergds/ccpdns/internal/steps"
	"go.uber.org/zap"
)

type ApplyOptions struct {
	// Stop after the plan step.
	DryRun bool
	// Poll until the zone is published, and until added TXT records resolve when WaitTXT is set.
	Wait    *propagation.Waiter
	WaitTXT bool
}

// Builds a task, by creating an executor with a specific set of steps.
// Steps of one task share an apply value instead of passing things through the context.
type TaskBuilder struct {
	exec    *executor.Executor
	adapter dnsadapters.DNSAdapter
	log     *zap.Logger
}

type apply struct {
	pb      *playbook.Playbook
	opts    ApplyOptions
	current []dnsadapters.DNSRecord
	add     []dnsadapters.DNSRecord
	del     []dnsadapters.DNSRecord
	applied bool
}

func NewTaskBuilder(adapter dnsadapters.DNSAdapter, log *zap.Logger) *TaskBuilder {
	return &TaskBuilder{exec: executor.NewExecutor(), adapter: adapter, log: logger.Named(log, "task")}
}

func (tb *TaskBuilder) Apply(ctx context.Context, pb *playbook.Playbook, opts ApplyOptions) {
	a := &apply{pb: pb, opts: opts}
	tb.exec.SetContext(ctx)
	tb.exec.AddStep(executor.NewStep(steps.STEP_OPEN, func(ctx context.Context, u chan<- *executor.ExecutorUpdate) error {
		return tb.stepOpen(ctx, u, a)
	}))
	tb.exec.AddStep(executor.NewStep(steps.STEP_PLAN, func(ctx context.Context, u chan<- *executor.ExecutorUpdate) error {
		return tb.stepPlan(ctx, u, a)
	}))
	if opts.DryRun {
		return
	}
	tb.exec.AddStep(executor.NewStep(steps.STEP_DNS, func(ctx context.Context, u chan<- *executor.ExecutorUpdate) error {
		return tb.stepApplyDNS(ctx, u, a)
	}))
	if opts.Wait != nil {
		tb.exec.AddStep(executor.NewStep(steps.STEP_WAIT, func(ctx context.Context, u chan<- *executor.ExecutorUpdate) error {
			return tb.stepWait(ctx, u, a)
		}))
	}
}

func (tb *TaskBuilder) Build() *executor.Executor {
	return tb.exec
}

// FQDN turns a record host inside zoneName into a fully qualified name.
func FQDN(host, zoneName string) string {
	zoneName = strings.TrimSuffix(zoneName, ".")
	if host == "" || host == "@" {
		return zoneName
	}
	if strings.HasSuffix(host, ".") {
		return strings.TrimSuffix(host, ".")
	}
	return host + "." + zoneName
}
