package boardctl

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/types"
)

// Defaults for the global flags.
const (
	DefaultURL     = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
	DefaultWait    = 30 * time.Second
	urlEnv         = "LEADERBOARD_URL"
)

type flags struct {
	url     string
	timeout time.Duration
	wait    time.Duration
}

// NewRootCommand builds the boardctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Drive a running attendance leaderboard from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	defURL := DefaultURL
	if env := strings.TrimSpace(os.Getenv(urlEnv)); env != "" {
		defURL = env
	}
	root.PersistentFlags().StringVar(&f.url, "url", defURL, "base URL of the service (env "+urlEnv+")")
	root.PersistentFlags().DurationVar(&f.timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	root.PersistentFlags().DurationVar(&f.wait, "wait", DefaultWait, "how long to wait for the board to settle")

	root.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Print the current board",
			Args:  cobra.NoArgs,
			RunE: f.run(func(ctx context.Context, c *Client, _ []string) (*types.View, error) {
				return c.View(ctx)
			}),
		},
		&cobra.Command{
			Use:   "terms",
			Short: "List the selectable terms",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), f.wait)
				defer cancel()
				terms, err := f.client().Terms(ctx)
				if err != nil {
					return err
				}
				return NewPrinter(cmd.OutOrStdout()).PrintTerms(terms)
			},
		},
		&cobra.Command{
			Use:   "search [query]",
			Short: "Filter the board by name; no query clears the filter",
			RunE: f.apply(func(args []string) (model.EventKind, string) {
				return model.EventSearch, strings.Join(args, " ")
			}),
		},
		&cobra.Command{
			Use:       "mode [base|plus]",
			Short:     "Set the scoring mode; no argument toggles it",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{"base", "plus"},
			RunE: f.apply(func(args []string) (model.EventKind, string) {
				if len(args) == 0 {
					return model.EventToggleMode, ""
				}
				return model.EventSetMode, args[0]
			}),
		},
		&cobra.Command{
			Use:   "page N",
			Short: "Show page N of the filtered board",
			Args:  cobra.MatchAll(cobra.ExactArgs(1), pageArg),
			RunE: f.apply(func(args []string) (model.EventKind, string) {
				return model.EventSelectPage, args[0]
			}),
		},
		&cobra.Command{
			Use:   "term YEAR-HALF",
			Short: "Switch to another term, e.g. 2025-1",
			Args:  cobra.ExactArgs(1),
			RunE: f.apply(func(args []string) (model.EventKind, string) {
				return model.EventSelectTerm, args[0]
			}),
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Refetch the current term from the sheet",
			Args:  cobra.NoArgs,
			RunE: f.apply(func([]string) (model.EventKind, string) {
				return model.EventRefresh, ""
			}),
		},
	)
	return root
}

func pageArg(_ *cobra.Command, args []string) error {
	if _, err := strconv.Atoi(args[0]); err != nil {
		return err
	}
	return nil
}

func (f *flags) client() *Client {
	return NewClient(f.url, f.timeout)
}

type viewFunc func(ctx context.Context, c *Client, args []string) (*types.View, error)

func (f *flags) run(fn viewFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), f.wait)
		defer cancel()
		v, err := fn(ctx, f.client(), args)
		if err != nil {
			return err
		}
		return NewPrinter(cmd.OutOrStdout()).Print(v)
	}
}

func (f *flags) apply(event func(args []string) (model.EventKind, string)) func(*cobra.Command, []string) error {
	return f.run(func(ctx context.Context, c *Client, args []string) (*types.View, error) {
		kind, value := event(args)
		return c.Apply(ctx, kind, value)
	})
}
