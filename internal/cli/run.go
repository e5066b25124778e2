package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/missy/internal/command"
	"github.com/roach88/missy/internal/config"
	"github.com/roach88/missy/internal/confirm"
	"github.com/roach88/missy/internal/engine"
	"github.com/roach88/missy/internal/gateway"
	"github.com/roach88/missy/internal/notes"
	"github.com/roach88/missy/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Prefix   string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat platform and serve commands",
		Long: `Connect to the chat gateway and serve commands until interrupted.

The bot token is read from MISSY_TOKEN or the config file. The connection
is re-established after a fixed delay whenever it drops.

Example:
  MISSY_TOKEN=... missy run
  missy run --config missy.yaml --db ./bot.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite database (default from config: db.path)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "command prefix (default from config: prefix)")

	return cmd
}

// bot is the wired process.
type bot struct {
	engine     *engine.Engine
	gateway    *gateway.Client
	dispatcher *command.Dispatcher
	store      *store.Store
}

// newBot wires the engine, gateway, store, coordinator and dispatcher.
func newBot(cfg config.Config, logger *slog.Logger) *bot {
	e := engine.New(engine.WithLogger(logger))

	perms := gateway.NewPermissionCache()
	rest := gateway.NewREST(cfg.Token,
		gateway.WithAPIBase(cfg.APIBaseURL),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
	)
	gw := gateway.NewClient(cfg.Token, e,
		gateway.WithURL(cfg.GatewayURL),
		gateway.WithReconnectDelay(cfg.ReconnectDelay),
		gateway.WithPermissionCache(perms),
		gateway.WithClientLogger(logger),
	)

	st := store.New(cfg.DBPath, store.WithLogger(logger))

	reg := command.NewRegistry()
	reg.MustRegister(notes.Commands()...)

	app := command.App{
		Messenger: rest,
		Prompter:  confirm.New(rest, perms, e, confirm.WithLogger(logger)),
		Store:     st,
		HTTP:      &http.Client{Timeout: cfg.APITimeout},
	}
	d := command.NewDispatcher(reg, app,
		command.WithPrefix(cfg.Prefix),
		command.WithOwners(cfg.OwnerIDs...),
		command.WithPromptTimeout(cfg.PromptTimeout),
		command.WithLogger(logger),
	)
	d.Attach(e)

	return &bot{engine: e, gateway: gw, dispatcher: d, store: st}
}

// serve runs the engine and the gateway until ctx ends or either fails,
// then waits for running handlers.
func (b *bot) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.engine.Run(gctx)
	})
	g.Go(func() error {
		err := b.gateway.Run(gctx)
		if err == nil {
			err = gctx.Err()
		}
		return err
	})

	err := g.Wait()
	b.dispatcher.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runBot(opts *RunOptions, cmd *cobra.Command) error {
	opts.overrideFromFlag(cmd, "db", "db.path")
	opts.overrideFromFlag(cmd, "prefix", "prefix")

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return WrapExitError(ExitCommandError, "cannot connect", err)
	}

	logger, err := opts.Logger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBot(cfg, logger)
	if err := notes.Migrate(ctx, b.store); err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare database", err)
	}

	logger.Info("bot starting",
		"db", cfg.DBPath,
		"prefix", cfg.Prefix,
		"owners", len(cfg.OwnerIDs),
		"gateway", cfg.GatewayURL,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "Bot started. Press Ctrl-C to stop.")

	if err := b.serve(ctx); err != nil {
		return WrapExitError(ExitFailure, "bot stopped", err)
	}

	logger.Info("bot stopped gracefully")
	return nil
}
