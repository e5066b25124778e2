// Package notes is a small key/value command module: remember, recall and
// forget notes, plus a generic confirm command. It exercises prompts and
// the Data Access Layer end to end.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/command"
	"github.com/roach88/missy/internal/confirm"
	"github.com/roach88/missy/internal/store"
)

// Schema creates the table the note commands read and write.
const Schema = `CREATE TABLE IF NOT EXISTS notes (key TEXT PRIMARY KEY, value TEXT NOT NULL)`

// Migrate creates the notes table if it does not exist.
func Migrate(ctx context.Context, st command.Storage) error {
	if err := st.Update(ctx, store.Query{Statement: Schema}); err != nil {
		return fmt.Errorf("migrate notes: %w", err)
	}
	return nil
}

// Commands returns the note commands.
func Commands() []command.Command {
	return []command.Command{
		{
			Name:  "confirm",
			Usage: "[--keep] <question>",
			Short: "Ask for confirmation and tick the request with the answer.",
			Run:   runConfirm,
		},
		{
			Name:    "remember",
			Aliases: []string{"set"},
			Usage:   "<key> <value>",
			Short:   "Store a note.",
			Run:     runRemember,
		},
		{
			Name:    "recall",
			Aliases: []string{"get"},
			Usage:   "<key>",
			Short:   "Show a stored note.",
			Run:     runRecall,
		},
		{
			Name:      "forget",
			Usage:     "<key>",
			Short:     "Delete a note after confirmation.",
			OwnerOnly: true,
			Run:       runForget,
		},
	}
}

func usage(ctx context.Context, c *command.Context) error {
	_, err := c.Send(ctx, "Usage: "+c.Command.Signature(c.Prefix))
	return err
}

func runConfirm(ctx context.Context, c *command.Context) error {
	args := c.Args
	var opts []confirm.RequestOption
	if len(args) > 0 && args[0] == "--keep" {
		opts = append(opts, confirm.WithKeepMessage())
		args = args[1:]
	}
	if len(args) == 0 {
		return usage(ctx, c)
	}

	outcome, err := c.Prompt(ctx, strings.Join(args, " "), opts...)
	if errors.Is(err, confirm.ErrPermissionDenied) {
		if _, sendErr := c.Send(ctx, "I need permission to add reactions here."); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	_, err = c.Tick(ctx, c.Message, outcome.Mark())
	return err
}

func runRemember(ctx context.Context, c *command.Context) error {
	if len(c.Args) < 2 {
		return usage(ctx, c)
	}
	key, value := c.Args[0], strings.Join(c.Args[1:], " ")

	err := c.Update(ctx,
		`INSERT INTO notes (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		_, _ = c.Tick(ctx, c.Message, chat.MarkNo)
		return err
	}

	_, err = c.Tick(ctx, c.Message, chat.MarkYes)
	return err
}

func runRecall(ctx context.Context, c *command.Context) error {
	if len(c.Args) != 1 {
		return usage(ctx, c)
	}
	key := c.Args[0]

	res, err := c.Select(ctx, `SELECT value FROM notes WHERE key = ?`, key)
	if err != nil {
		return err
	}
	if res.IsNothing() {
		_, err = c.Send(ctx, fmt.Sprintf("Nothing stored for %q.", key))
		return err
	}

	_, err = c.Send(ctx, fmt.Sprintf("%s: %v", key, res.Value()))
	return err
}

func runForget(ctx context.Context, c *command.Context) error {
	if len(c.Args) != 1 {
		return usage(ctx, c)
	}
	key := c.Args[0]

	found, err := c.FoundIn(ctx, `SELECT 1 FROM notes WHERE key = ?`, key)
	if err != nil {
		return err
	}
	if !found {
		_, err = c.Send(ctx, fmt.Sprintf("Nothing stored for %q.", key))
		return err
	}

	outcome, err := c.Prompt(ctx, fmt.Sprintf("Forget %q?", key),
		confirm.WithResponse(confirm.Confirmed, fmt.Sprintf("Forgot %q.", key)),
		confirm.WithResponse(confirm.Declined, fmt.Sprintf("Kept %q.", key)),
		confirm.WithKeepMessage(),
	)
	if err != nil {
		return err
	}
	if outcome == confirm.Confirmed {
		if err := c.Update(ctx, `DELETE FROM notes WHERE key = ?`, key); err != nil {
			return err
		}
	}

	_, err = c.Tick(ctx, c.Message, outcome.Mark())
	return err
}
