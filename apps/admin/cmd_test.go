package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/storage/api"
	inmemdb "github.com/trezcool/campusdesk/storage/database/inmem"
)

type policySource map[string]*admission.Policy

func (s policySource) GetPolicy(ctx context.Context, yearID string) (*admission.Policy, error) {
	if api.TokenFrom(ctx) != "t0k3n" {
		return nil, core.NewAPIError(core.KindUnauthorized, 401, "bad token", nil)
	}
	return s[yearID], nil
}

type taxSource []finance.Tax

func (s taxSource) Taxes(_ context.Context, _ core.Scope) ([]finance.Tax, error) {
	return s, nil
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	mem, err := inmemdb.Open()
	require.NoError(t, err)

	var out bytes.Buffer
	cli := &commandLine{
		conf: &core.Config{Admission: core.AdmissionConfig{Location: time.UTC}},
		out:  &out,
		policies: policySource{"2024": {
			AcademicYearID: "2024",
			Window: &admission.Window{
				StartDate: core.NewDate(2024, time.January, 1),
				EndDate:   core.NewDate(2024, time.January, 31),
			},
		}},
		taxes: taxSource{
			{ID: "gst", Name: "GST", Rate: decimal.NewFromInt(18), Type: finance.TaxPercentage, ApplicableOn: finance.ContextFee},
			{ID: "levy", Name: "Levy", Rate: decimal.NewFromInt(500), Type: finance.TaxFixed, ApplicableOn: finance.ContextAdmission},
		},
		formatter: finance.NewFormatter(language.English),
		snapshots: inmemdb.NewSnapshotRepository(mem),
	}
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("t0k3n"), nil }
	return cli, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_policy(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "no year", args: []string{"policy"}, wantErr: errHelp},
		{name: "bad date", args: []string{"policy", "-year", "2024", "-date", "31/01/2024"}, wantErrStr: "parsing date"},
		{name: "open", args: []string{"policy", "-year", "2024", "-date", "2024-01-31"}, wantOut: "open on 2024-01-31"},
		{name: "closed", args: []string{"policy", "-year", "2024", "-date", "2024-02-01"}, wantOut: "closed on 31 Jan 2024"},
		{name: "no policy", args: []string{"policy", "-year", "2025"}, wantOut: "admissions are open"},
	})
	assert.Equal(t, "t0k3n", cli.token)
}

func Test_commandLine_tokenPrompt(t *testing.T) {
	cli, out := setup(t)
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }

	runTests(t, cli, out, []cliTest{
		{name: "empty token", args: []string{"policy", "-year", "2024"}, wantErr: errHelp, wantOut: "Enter backend token:"},
	})

	cli.conf.Upstream.Token = "static"
	runTests(t, cli, out, []cliTest{
		// the configured token is used by the client itself
		{name: "configured token", args: []string{"policy", "-year", "2024"}, wantErrStr: "bad token"},
	})
}

func Test_commandLine_quote(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no base", args: []string{"quote"}, wantErr: errHelp},
		{name: "unknown context", args: []string{"quote", "-base", "10", "-context", "lol"}, wantErrStr: `unknown tax context "lol"`},
		{name: "admission", args: []string{"quote", "-base", "45000"}, wantOut: "53,600.00"},
		{name: "fee", args: []string{"quote", "-base", "45,000", "-context", "fee"}, wantOut: "53,100.00"},
	})
}

func Test_commandLine_cache(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()
	require.NoError(t, cli.snapshots.Save(ctx, "admin-storage:b1:reference", []byte("{}"), time.Millisecond))
	require.NoError(t, cli.snapshots.Save(ctx, "staff-storage:b1:reference", []byte("{}"), time.Hour))
	time.Sleep(5 * time.Millisecond)

	runTests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"cache"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"cache", "lol"}, wantErr: errHelp},
		{name: "purge", args: []string{"cache", "purge"}, wantOut: "1 expired snapshots removed"},
		{name: "invalidate without key", args: []string{"cache", "invalidate"}, wantErr: errHelp},
		{name: "invalidate", args: []string{"cache", "invalidate", "staff-storage"}, wantOut: "staff-storage invalidated"},
	})

	_, ok, err := cli.snapshots.Load(ctx, "staff-storage:b1:reference")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no engine", args: []string{"migrate", "up"}, wantErrStr: "need the postgres engine"},
	})

	cli.migrate = func(command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runTests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
}
