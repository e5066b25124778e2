package harness

import (
	"context"
	"errors"

	"github.com/roach88/missy/internal/command"
	"github.com/roach88/missy/internal/notes"
)

// Fixtures returns the commands scenarios run against: the note commands
// plus boom, which fails on purpose.
func Fixtures() []command.Command {
	return append(notes.Commands(), command.Command{
		Name:   "boom",
		Usage:  "[panic]",
		Short:  "Fail on purpose.",
		Hidden: true,
		Run:    runBoom,
	})
}

func runBoom(_ context.Context, c *command.Context) error {
	if len(c.Args) > 0 && c.Args[0] == "panic" {
		panic("boom")
	}
	return errors.New("boom")
}
