package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/missy/internal/store"
)

// DBOptions holds flags shared by the query, exec and exists commands.
type DBOptions struct {
	*RootOptions
	Database string
	Chunked  bool
}

// QueryOutput is the structured form of a query result.
type QueryOutput struct {
	Kind  string `json:"kind" yaml:"kind"`
	Value any    `json:"value" yaml:"value"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "Run a select through the data access layer",
		Long: `Run a select statement the way command handlers do and print the
shaped result: nothing, a single coerced value, a row, or chunks when
--chunked is set.

Params bind to ? placeholders in order. Integer-looking params bind as
integers, everything else as text.

Examples:
  missy query "SELECT value FROM notes WHERE key = ?" greeting
  missy query "SELECT key, value FROM notes" --chunked
  missy query "SELECT count(*) FROM notes" --db ./bot.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args[0], args[1:])
		},
	}

	addDBFlag(cmd, opts)
	cmd.Flags().BoolVar(&opts.Chunked, "chunked", false, "fetch every row and regroup values by the select's column count")

	return cmd
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <sql> [params...]",
		Short: "Run a write statement and commit it",
		Long: `Run one insert, update, delete or schema statement and commit.

Examples:
  missy exec "CREATE TABLE IF NOT EXISTS notes (key TEXT PRIMARY KEY, value TEXT NOT NULL)"
  missy exec "DELETE FROM notes WHERE key = ?" greeting`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, cmd, args[0], args[1:])
		},
	}

	addDBFlag(cmd, opts)
	return cmd
}

// NewExistsCommand creates the exists command.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exists <sql> [params...]",
		Short: "Report whether a select returns at least one row",
		Long: `Report whether a select returns at least one row.

Exit codes:
  0 - At least one row
  1 - No rows
  2 - Command error (bad SQL, unreadable database)

Example:
  missy exists "SELECT 1 FROM notes WHERE key = ?" greeting`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(opts, cmd, args[0], args[1:])
		},
	}

	addDBFlag(cmd, opts)
	return cmd
}

func addDBFlag(cmd *cobra.Command, opts *DBOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite database (default from config: db.path)")
}

// openStore resolves the database path from --db or config.
func (o *DBOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	o.overrideFromFlag(cmd, "db", "db.path")
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	logger, err := o.Logger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, err
	}
	o.Formatter(cmd).VerboseLog("Using database: %s", cfg.DBPath)
	return store.New(cfg.DBPath, store.WithLogger(logger)), nil
}

// bindParams converts positional arguments into statement parameters.
func bindParams(args []string) []any {
	params := make([]any, len(args))
	for i, a := range args {
		if n, err := strconv.ParseInt(a, 10, 64); err == nil {
			params[i] = n
			continue
		}
		params[i] = a
	}
	return params
}

func storageFailure(err error) error {
	if store.IsStorageError(err) {
		return WrapExitError(ExitCommandError, "storage error", err)
	}
	return err
}

func runQuery(opts *DBOptions, cmd *cobra.Command, statement string, args []string) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}

	res, err := st.Select(cmd.Context(), store.Query{
		Statement: statement,
		Params:    bindParams(args),
		Chunked:   opts.Chunked,
	})
	if err != nil {
		return storageFailure(err)
	}

	f := opts.Formatter(cmd)
	if f.structured() {
		return f.Success(QueryOutput{Kind: res.Kind.String(), Value: res.Value()})
	}

	switch res.Kind {
	case store.KindNothing:
		return f.Success("(nothing)")
	case store.KindScalar:
		return f.Success(formatValue(res.Scalar))
	case store.KindRow:
		return f.Table(columnHeader(len(res.Row)), [][]string{formatRow(res.Row)})
	default:
		width := 0
		rows := make([][]string, len(res.Chunks))
		for i, c := range res.Chunks {
			rows[i] = formatRow(c)
			width = max(width, len(c))
		}
		return f.Table(columnHeader(width), rows)
	}
}

func runExec(opts *DBOptions, cmd *cobra.Command, statement string, args []string) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}

	if err := st.Update(cmd.Context(), store.Query{
		Statement: statement,
		Params:    bindParams(args),
	}); err != nil {
		return storageFailure(err)
	}

	f := opts.Formatter(cmd)
	if f.structured() {
		return f.Success(map[string]string{"database": st.DefaultPath()})
	}
	return f.Success("✓ Committed")
}

func runExists(opts *DBOptions, cmd *cobra.Command, statement string, args []string) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}

	found, err := st.FoundIn(cmd.Context(), store.Query{
		Statement: statement,
		Params:    bindParams(args),
	})
	if err != nil {
		return storageFailure(err)
	}

	f := opts.Formatter(cmd)
	if f.structured() {
		if err := f.Success(map[string]bool{"found": found}); err != nil {
			return err
		}
	} else {
		if err := f.Success(strconv.FormatBool(found)); err != nil {
			return err
		}
	}
	if !found {
		return NewExitError(ExitFailure, "no rows")
	}
	return nil
}

func columnHeader(n int) []string {
	header := make([]string, n)
	for i := range header {
		header[i] = "#" + strconv.Itoa(i+1)
	}
	return header
}

func formatRow(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatValue(v)
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
