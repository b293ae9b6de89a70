package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sergds/ccpdns/internal"
	"github.com/sergds/ccpdns/internal/config"
	"github.com/sergds/ccpdns/internal/logger"
	"github.com/urfave/cli/v2"
)

// Where it all begins...
func main() {
	app := &cli.App{
		Name:    "ccpdns",
		Usage:   "edit DNS zones in the netcup customer control panel",
		Version: internal.Version(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultPath(), Usage: "config file"},
			&cli.StringFlag{Name: "endpoint", Usage: "panel base url"},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "customer number"},
			&cli.StringFlag{Name: "second-factor", Aliases: []string{"tan"}, Usage: "one-time code, overrides the configured TOTP secret"},
			&cli.StringFlag{Name: "cache", Usage: "cookie cache file, keeps the session between runs"},
			&cli.BoolFlag{Name: "no-cache", Usage: "log in and out on every run"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json"},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			_ = logger.Log.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "domains",
				Aliases:   []string{"d", "ls", "list"},
				Usage:     "List domains of the account.",
				ArgsUsage: "[search]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1, Usage: "result page"},
				},
				Action: cmdDomains,
			},
			{
				Name:      "show",
				Aliases:   []string{"s", "sh"},
				Usage:     "Print a zone with its records.",
				ArgsUsage: "<domain>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yaml", Usage: "print as yaml"},
				},
				Action: cmdShow,
			},
			{
				Name:      "add",
				Aliases:   []string{"a"},
				Usage:     "Add a record unless an identical one exists.",
				ArgsUsage: "<domain> <host> <type> <destination>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "priority", Aliases: []string{"p"}, Usage: "MX/SRV priority"},
				}, waitFlags...),
				Action: cmdAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm", "del"},
				Usage:     "Remove records by host and type.",
				ArgsUsage: "<domain> <host> <type>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "destination", Usage: "only remove records pointing here"},
				}, waitFlags...),
				Action: cmdRemove,
			},
			{
				Name:      "set",
				Usage:     "Change fields of one record, found by its id from `show`.",
				ArgsUsage: "<domain> <record-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host"},
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "destination"},
					&cli.IntFlag{Name: "priority"},
				},
				Action: cmdSet,
			},
			{
				Name:      "apply",
				Aliases:   []string{"ap", "app"},
				Usage:     "Apply a zone playbook.",
				ArgsUsage: "<playbook.yaml>",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "only print the plan"},
				}, waitFlags...),
				Action: cmdApply,
			},
			{
				Name:      "wait",
				Aliases:   []string{"w"},
				Usage:     "Wait until the panel publishes a zone.",
				ArgsUsage: "<domain>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "txt", Usage: "also wait until fqdn=value resolves publicly"},
					&cli.DurationFlag{Name: "timeout", Value: 15 * time.Minute},
				},
				Action: cmdWait,
			},
			{
				Name:   "certbot-auth",
				Usage:  "certbot --manual-auth-hook: publish CERTBOT_VALIDATION and wait for it.",
				Flags:  waitFlags,
				Action: cmdCertbotAuth,
			},
			{
				Name:   "certbot-cleanup",
				Usage:  "certbot --manual-cleanup-hook: remove the validation record again.",
				Action: cmdCertbotCleanup,
			},
			{
				Name:   "logout",
				Usage:  "End the panel session and drop the cookie cache.",
				Action: cmdLogout,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
