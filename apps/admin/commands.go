package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
)

// policy prints the verdict of the year's admission policy on date.
func (cli *commandLine) policy(yearID, date string) error {
	today := time.Now().In(cli.conf.Admission.Location)
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return errors.Wrapf(err, "parsing date %q", date)
		}
		today = d.Time
	}

	ctx, err := cli.upstreamCtx()
	if err != nil {
		return err
	}
	policy, err := cli.policies.GetPolicy(ctx, yearID)
	if err != nil {
		return errors.Wrap(err, "getting admission policy")
	}
	if policy == nil {
		fmt.Fprintf(cli.out, "no admission policy for %s: admissions are open\n", yearID)
		return nil
	}

	verdict := admission.Evaluate(policy, today)
	switch {
	case verdict.Blocked:
		fmt.Fprintf(cli.out, "blocked on %s: %s\n", core.DateOf(today), verdict.Reason)
	case verdict.Late:
		fmt.Fprintf(cli.out, "late on %s: %s\n", core.DateOf(today), verdict.Reason)
	default:
		fmt.Fprintf(cli.out, "open on %s\n", core.DateOf(today))
	}
	return nil
}

// quote prints the tax breakdown of base in the given context.
func (cli *commandLine) quote(base, taxContext, branchID string) error {
	contexts, ok := finance.ParseContext(taxContext)
	if !ok {
		return errors.Errorf("unknown tax context %q", taxContext)
	}
	ctx, err := cli.upstreamCtx()
	if err != nil {
		return err
	}
	taxes, err := cli.taxes.Taxes(ctx, core.Scope{Portal: core.PortalAdmin, BranchID: branchID})
	if err != nil {
		return err
	}

	q := finance.ComputeTotal(finance.ParseAmount(base), finance.Applicable(taxes, contexts...))
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, line := range cli.formatter.Lines(q) {
		fmt.Fprintf(w, "%s\t%s\t\n", line[0], line[1])
	}
	return w.Flush()
}

func (cli *commandLine) purgeCache() error {
	n, err := cli.snapshots.Purge(context.Background(), time.Now())
	if err != nil {
		return errors.Wrap(err, "purging snapshots")
	}
	fmt.Fprintf(cli.out, "%d expired snapshots removed\n", n)
	return nil
}

func (cli *commandLine) invalidateCache(key string) error {
	if err := cli.snapshots.Invalidate(context.Background(), key); err != nil {
		return errors.Wrapf(err, "invalidating %q", key)
	}
	fmt.Fprintf(cli.out, "%s invalidated\n", key)
	return nil
}
