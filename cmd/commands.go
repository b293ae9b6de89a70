package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/ccp"
	"github.com/sergds/ccpdns/internal/certbot"
	"github.com/sergds/ccpdns/internal/client"
	"github.com/sergds/ccpdns/internal/logger"
	"github.com/sergds/ccpdns/internal/playbook"
	"github.com/sergds/ccpdns/internal/propagation"
	"github.com/sergds/ccpdns/internal/task"
	"github.com/sergds/ccpdns/internal/zone"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func needArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return cli.Exit("Missing arguments: "+c.Command.Name+" "+c.Command.ArgsUsage, 1)
	}
	return nil
}

func cmdDomains(c *cli.Context) error {
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		refs, err := conn.ListDomains(ctx, c.Args().First(), c.Int("page"))
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Println("No domains.")
			return nil
		}
		for _, r := range refs {
			fmt.Printf("%s\t%s\n", color.CyanString(r.ID), r.Name)
		}
		return nil
	})
}

// shownZone is what `show --yaml` prints.
type shownZone struct {
	Domain     string        `yaml:"domain"`
	ID         string        `yaml:"id"`
	ZoneID     string        `yaml:"zoneid"`
	Serial     string        `yaml:"serial"`
	DNSSEC     string        `yaml:"dnssec"`
	Webhosting bool          `yaml:"webhosting"`
	TTL        int           `yaml:"ttl"`
	Retry      int           `yaml:"retry"`
	Expire     int           `yaml:"expire"`
	Refresh    int           `yaml:"refresh"`
	Records    []shownRecord `yaml:"records"`
}

type shownRecord struct {
	ID          string `yaml:"id"`
	zone.Record `yaml:",inline"`
}

func showZone(d *zone.Domain) shownZone {
	s := shownZone{
		Domain: d.Name(), ID: d.ID(), ZoneID: d.ZoneID(), Serial: d.Serial(),
		DNSSEC: d.DNSSEC().String(), Webhosting: d.Webhosting(),
		TTL: d.TTL(), Retry: d.Retry(), Expire: d.Expire(), Refresh: d.Refresh(),
		Records: []shownRecord{},
	}
	for _, e := range d.Records() {
		s.Records = append(s.Records, shownRecord{ID: e.ID.Key(), Record: e.Record})
	}
	return s
}

func cmdShow(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		ref, err := conn.FindDomain(ctx, c.Args().First())
		if err != nil {
			return err
		}
		d, err := conn.GetDomain(ctx, ref.ID)
		if err != nil {
			return err
		}
		if c.Bool("yaml") {
			out, err := yaml.Marshal(showZone(d))
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		}
		fmt.Println(color.New(color.Bold).Sprint(d.Name()), color.HiBlackString("(id "+d.ID()+", serial "+d.Serial()+")"))
		fmt.Printf("ttl %d  retry %d  expire %d  refresh %d  dnssec %s\n", d.TTL(), d.Retry(), d.Expire(), d.Refresh(), d.DNSSEC())
		if d.Webhosting() {
			fmt.Println(color.YellowString("webhosting zone"))
		}
		for _, e := range d.Records() {
			fmt.Printf("%-22s %s\n", color.CyanString(e.ID.Key()), e.Record.String())
		}
		return nil
	})
}

func cmdAdd(c *cli.Context) error {
	if err := needArgs(c, 4); err != nil {
		return err
	}
	args := c.Args().Slice()
	pb := &playbook.Playbook{Domain: args[0], Present: []zone.Record{{
		Host: args[1], Type: zone.RecordType(strings.ToUpper(args[2])), Destination: args[3], Priority: c.Int("priority"),
	}}}
	return runPlaybook(c, pb, false)
}

func cmdRemove(c *cli.Context) error {
	if err := needArgs(c, 3); err != nil {
		return err
	}
	args := c.Args().Slice()
	pb := &playbook.Playbook{Domain: args[0], Absent: []zone.Record{{
		Host: args[1], Type: zone.RecordType(strings.ToUpper(args[2])), Destination: c.String("destination"),
	}}}
	return runPlaybook(c, pb, false)
}

func cmdApply(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	pb, err := playbook.Load(c.Args().First())
	if err != nil {
		return exitErr(err)
	}
	return runPlaybook(c, pb, c.Bool("dry-run"))
}

// runPlaybook plans and applies pb through its adapter, logging in only when the adapter needs the panel.
func runPlaybook(c *cli.Context, pb *playbook.Playbook, dryRun bool) error {
	if err := pb.Validate(); err != nil {
		return exitErr(err)
	}
	opts := task.ApplyOptions{DryRun: dryRun, Wait: waiter(c), WaitTXT: c.Bool("wait-txt")}
	run := func(ctx context.Context, conn *ccp.Connection) error {
		ad, err := adapterFor(pb.Adapter, conn)
		if err != nil {
			return err
		}
		tb := task.NewTaskBuilder(ad, logger.Log)
		tb.Apply(ctx, pb, opts)
		return client.Execute(printer(), tb.Build())
	}
	if strings.EqualFold(pb.Adapter, "null") {
		ctx, cancel := commandContext(c)
		defer cancel()
		return exitErr(run(ctx, nil))
	}
	return withConnection(c, run)
}

func cmdSet(c *cli.Context) error {
	if err := needArgs(c, 2); err != nil {
		return err
	}
	id, err := zone.ParseRecordID(c.Args().Get(1))
	if err != nil {
		return exitErr(err)
	}
	var upd zone.RecordUpdate
	if c.IsSet("host") {
		h := c.String("host")
		upd.Host = &h
	}
	if c.IsSet("type") {
		t := zone.RecordType(strings.ToUpper(c.String("type")))
		upd.Type = &t
	}
	if c.IsSet("destination") {
		d := c.String("destination")
		upd.Destination = &d
	}
	if c.IsSet("priority") {
		p := c.Int("priority")
		upd.Priority = &p
	}
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		ref, err := conn.FindDomain(ctx, c.Args().First())
		if err != nil {
			return err
		}
		d, err := conn.GetDomain(ctx, ref.ID)
		if err != nil {
			return err
		}
		ok, err := d.SetRecord(id, upd)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(zone.ErrRecordNotFound, "%s in %s", id, d.Name())
		}
		if err := conn.SaveDomain(ctx, d); err != nil {
			return err
		}
		rec, _ := d.Record(id)
		fmt.Println(color.GreenString("Saved"), rec.String())
		return nil
	})
}

func cmdWait(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	type txtWant struct{ fqdn, value string }
	var txts []txtWant
	for _, spec := range c.StringSlice("txt") {
		fqdn, value, ok := strings.Cut(spec, "=")
		if !ok || fqdn == "" {
			return cli.Exit("--txt wants fqdn=value, got "+strconv.Quote(spec), 1)
		}
		txts = append(txts, txtWant{fqdn, value})
	}
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		ref, err := conn.FindDomain(ctx, c.Args().First())
		if err != nil {
			return err
		}
		sp := printer()
		sp.PushLines(1)
		w := &propagation.Waiter{Checker: conn, Timeout: c.Duration("timeout"), Log: logger.Log}
		sp.Status(0, color.YellowString("Waiting for "+ref.Name+" to go live..."))
		if err := w.WaitLive(ctx, ref.ID); err != nil {
			return err
		}
		sp.Status(0, color.GreenString(ref.Name+" is live"))
		for _, t := range txts {
			sp.Status(0, color.YellowString("Resolving "+t.fqdn+" TXT..."))
			if err := w.WaitTXT(ctx, t.fqdn, t.value); err != nil {
				return err
			}
			sp.Println(color.GreenString(t.fqdn + " TXT resolves"))
		}
		return nil
	})
}

// certbotPlaybook resolves the zone for the challenge in the environment and builds the playbook for it.
func certbotPlaybook(ctx context.Context, conn *ccp.Connection, deploy bool) (*playbook.Playbook, error) {
	ch, err := certbot.FromEnv()
	if err != nil {
		return nil, err
	}
	refs, err := conn.ListDomains(ctx, ch.Search(), 1)
	if err != nil {
		return nil, err
	}
	ref, err := ch.Zone(refs)
	if err != nil {
		return nil, err
	}
	if deploy {
		return ch.Deploy(ref.Name)
	}
	return ch.Cleanup(ref.Name)
}

func cmdCertbotAuth(c *cli.Context) error {
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		pb, err := certbotPlaybook(ctx, conn, true)
		if err != nil {
			return err
		}
		w := waiter(c)
		if w == nil {
			// certbot checks right after the hook returns
			w = &propagation.Waiter{Timeout: c.Duration("timeout"), Log: logger.Log}
		}
		ad, err := adapterFor("ccp", conn)
		if err != nil {
			return err
		}
		tb := task.NewTaskBuilder(ad, logger.Log)
		tb.Apply(ctx, pb, task.ApplyOptions{Wait: w, WaitTXT: c.Bool("wait-txt")})
		return client.Execute(printer(), tb.Build())
	})
}

func cmdCertbotCleanup(c *cli.Context) error {
	return withConnection(c, func(ctx context.Context, conn *ccp.Connection) error {
		pb, err := certbotPlaybook(ctx, conn, false)
		if err != nil {
			return err
		}
		ad, err := adapterFor("ccp", conn)
		if err != nil {
			return err
		}
		tb := task.NewTaskBuilder(ad, logger.Log)
		tb.Apply(ctx, pb, task.ApplyOptions{})
		return client.Execute(printer(), tb.Build())
	})
}

func cmdLogout(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()
	conn, err := connect(ctx)
	if err != nil {
		return exitErr(err)
	}
	if err := conn.Logout(ctx); err != nil {
		return exitErr(err)
	}
	fmt.Println("Logged out.")
	return nil
}
