package task

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	dnsadapters "github.com/sergds/ccpdns/internal/adapters/dns"
	"github.com/sergds/ccpdns/internal/executor"
	"github.com/sergds/ccpdns/internal/steps"
	"github.com/sergds/ccpdns/internal/zone"
	"go.uber.org/zap"
)

func summary(u chan<- *executor.ExecutorUpdate, msg string) {
	u <- &executor.ExecutorUpdate{CurrentStep: steps.STEP_PUSH_SUMMARY, StepMessage: msg}
}

func notify(u chan<- *executor.ExecutorUpdate, msg string) {
	u <- &executor.ExecutorUpdate{CurrentStep: steps.STEP_NOTIFY, StepMessage: msg}
}

func (tb *TaskBuilder) stepOpen(ctx context.Context, u chan<- *executor.ExecutorUpdate, a *apply) error {
	if err := tb.adapter.Open(ctx, a.pb.Domain); err != nil {
		return errors.Wrapf(err, "open %s", a.pb.Domain)
	}
	recs, err := tb.adapter.GetRecords(ctx, "")
	if err != nil {
		return errors.Wrapf(err, "records of %s", a.pb.Domain)
	}
	a.current = recs
	notify(u, fmt.Sprintf("%s has %d records", a.pb.Domain, len(recs)))
	return nil
}

func (tb *TaskBuilder) stepPlan(ctx context.Context, u chan<- *executor.ExecutorUpdate, a *apply) error {
	a.add, a.del = a.pb.Plan(a.current)
	tb.log.Debug("planned", zap.String("playbook", a.pb.Name), zap.Int("add", len(a.add)), zap.Int("delete", len(a.del)))

	if len(a.add) == 0 && len(a.del) == 0 && a.pb.Settings.Empty() {
		summary(u, a.pb.Domain+" is up to date")
		return nil
	}
	summary(u, "Plan for "+a.pb.Domain+":")
	for _, r := range a.del {
		summary(u, "- "+r.Record.String())
	}
	for _, r := range a.add {
		summary(u, "+ "+r.Record.String())
	}
	for _, s := range settingsSummary(a.pb.Settings) {
		summary(u, "~ "+s)
	}
	return nil
}

// Stage the plan on the adapter and commit it in one go.
func (tb *TaskBuilder) stepApplyDNS(ctx context.Context, u chan<- *executor.ExecutorUpdate, a *apply) error {
	if len(a.add) == 0 && len(a.del) == 0 && a.pb.Settings.Empty() {
		return nil
	}
	for _, r := range a.del {
		if err := tb.adapter.DelRecord(ctx, r); err != nil {
			return errors.Wrapf(err, "delete %s", r.Record.String())
		}
	}
	for _, r := range a.add {
		if err := tb.adapter.AddRecord(ctx, r); err != nil {
			return errors.Wrapf(err, "add %s", r.Record.String())
		}
	}
	if !a.pb.Settings.Empty() {
		if err := tb.adapter.SetSettings(ctx, a.pb.Settings); err != nil {
			return errors.Wrap(err, "zone settings")
		}
	}
	notify(u, "Saving "+a.pb.Domain)
	if err := tb.adapter.CommitRecords(ctx); err != nil {
		return errors.Wrapf(err, "save %s", a.pb.Domain)
	}
	a.applied = true
	tb.log.Info("zone saved", zap.String("domain", a.pb.Domain), zap.Int("add", len(a.add)), zap.Int("delete", len(a.del)))
	summary(u, fmt.Sprintf("Saved %s: %d added, %d removed", a.pb.Domain, len(a.add), len(a.del)))
	return nil
}

func (tb *TaskBuilder) stepWait(ctx context.Context, u chan<- *executor.ExecutorUpdate, a *apply) error {
	if !a.applied {
		return nil
	}
	w := *a.opts.Wait
	w.Checker = adapterChecker{tb.adapter}
	if w.Log == nil {
		w.Log = tb.log
	}
	notify(u, "Waiting for "+a.pb.Domain+" to go live")
	if err := w.WaitLive(ctx, a.pb.Domain); err != nil {
		return err
	}
	summary(u, a.pb.Domain+" is live")

	if !a.opts.WaitTXT {
		return nil
	}
	for _, r := range a.add {
		if r.Type != zone.TypeTXT {
			continue
		}
		name := FQDN(r.Host, a.pb.Domain)
		notify(u, "Resolving "+name+" TXT")
		if err := w.WaitTXT(ctx, name, r.Destination); err != nil {
			return err
		}
		summary(u, name+" TXT resolves")
	}
	return nil
}

// adapterChecker lets the propagation waiter poll whatever adapter the task runs on.
type adapterChecker struct {
	adapter dnsadapters.DNSAdapter
}

func (c adapterChecker) IsRecordLive(ctx context.Context, _ string) (bool, error) {
	return c.adapter.Propagated(ctx)
}

func settingsSummary(s dnsadapters.ZoneSettings) []string {
	var out []string
	for _, f := range []struct {
		name string
		v    *int
	}{{"ttl", s.TTL}, {"retry", s.Retry}, {"expire", s.Expire}, {"refresh", s.Refresh}} {
		if f.v != nil {
			out = append(out, f.name+" "+strconv.Itoa(*f.v))
		}
	}
	if s.DNSSEC != nil {
		out = append(out, "dnssec "+strconv.FormatBool(*s.DNSSEC))
	}
	return out
}
