package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/store"
	"github.com/trezcool/campusdesk/storage/api"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	out       io.Writer
	policies  admission.PolicySource
	taxes     admission.TaxSource
	formatter *finance.Formatter
	snapshots store.SnapshotStore
	migrate   func(command string, args ...string) error

	token string
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  policy -year ID [-date YYYY-MM-DD] - evaluate the admission policy of an academic year")
	fmt.Fprintln(cli.out, "  quote -base AMOUNT [-context admission|fee|expenses] [-branch ID] - compute taxes on an amount")
	fmt.Fprintln(cli.out, "  cache purge - drop the expired snapshots")
	fmt.Fprintln(cli.out, "  cache invalidate KEY - drop a snapshot and the snapshots under it")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command")
}

// upstreamCtx returns a context carrying the backend token, prompted when none is configured.
func (cli *commandLine) upstreamCtx() (context.Context, error) {
	ctx := context.Background()
	if cli.conf.Upstream.Token != "" {
		return ctx, nil
	}
	if cli.token == "" {
		fmt.Fprint(cli.out, "Enter backend token:")
		token, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, err
		}
		if len(token) == 0 {
			return nil, errHelp
		}
		cli.token = string(token)
	}
	return api.WithToken(ctx, cli.token), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	policyCmd := flag.NewFlagSet("policy", flag.ContinueOnError)
	policyCmd.SetOutput(cli.out)
	policyYear := policyCmd.String("year", "", "The academic year id.")
	policyDate := policyCmd.String("date", "", "The day to evaluate, today by default.")

	quoteCmd := flag.NewFlagSet("quote", flag.ContinueOnError)
	quoteCmd.SetOutput(cli.out)
	quoteBase := quoteCmd.String("base", "", "The base amount.")
	quoteContext := quoteCmd.String("context", "admission", "The tax context.")
	quoteBranch := quoteCmd.String("branch", "", "The branch id, all branches by default.")

	switch args[1] {
	case "policy":
		if err := policyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *policyYear == "" {
			policyCmd.Usage()
			return errHelp
		}
		return cli.policy(*policyYear, *policyDate)
	case "quote":
		if err := quoteCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *quoteBase == "" {
			quoteCmd.Usage()
			return errHelp
		}
		return cli.quote(*quoteBase, *quoteContext, *quoteBranch)
	case "cache":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		switch args[2] {
		case "purge":
			return cli.purgeCache()
		case "invalidate":
			if len(args) < 4 {
				cli.printUsage()
				return errHelp
			}
			return cli.invalidateCache(args[3])
		}
		cli.printUsage()
		return errHelp
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if cli.migrate == nil {
			return errors.New("migrations need the postgres engine")
		}
		return cli.migrate(args[2], args[3:]...)
	default:
		cli.printUsage()
		return errHelp
	}
}
