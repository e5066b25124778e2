package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/missy/internal/chat"
)

// HelpColor is the embed accent used by help output.
const HelpColor = 0xFD8063

// NoHelpText stands in for commands that describe nothing.
const NoHelpText = "No help text specified."

func (d *Dispatcher) registerBuiltins() {
	builtins := []Command{
		{
			Name:   "help",
			Usage:  "[command]",
			Short:  "Shows this message.",
			Hidden: true,
			Run:    d.runHelp,
		},
		{
			Name:  "uptime",
			Short: "Shows how long the bot has been online.",
			Run:   d.runUptime,
		},
	}
	for _, cmd := range builtins {
		if _, exists := d.registry.Lookup(cmd.Name); exists {
			continue
		}
		if err := d.registry.Register(cmd); err != nil {
			d.logger.Warn("builtin not registered", "command", cmd.Name, "error", err)
		}
	}
}

// visible reports whether help should show cmd to the caller.
func visible(cmd *Command, c *Context) bool {
	if cmd.Hidden {
		return false
	}
	return !cmd.OwnerOnly || c.IsOwner()
}

func (d *Dispatcher) runHelp(ctx context.Context, c *Context) error {
	if len(c.Args) == 0 {
		_, err := c.SendEmbed(ctx, d.commandList(c))
		return err
	}

	name := c.Args[0]
	cmd, ok := c.Registry().Lookup(name)
	if !ok || !visible(cmd, c) {
		_, err := c.Send(ctx, fmt.Sprintf("No command called %q found.", name))
		return err
	}

	_, err := c.SendEmbed(ctx, commandDetail(cmd, c.Prefix))
	return err
}

func (d *Dispatcher) commandList(c *Context) chat.Embed {
	e := chat.Embed{Color: HelpColor}
	for _, cmd := range c.Registry().Commands() {
		if !visible(cmd, c) {
			continue
		}
		e.Fields = append(e.Fields, chat.EmbedField{
			Name:  cmd.Signature(c.Prefix),
			Value: orDefault(cmd.Short),
		})
	}
	return e
}

func commandDetail(cmd *Command, prefix string) chat.Embed {
	e := chat.Embed{
		Title:       cmd.Signature(prefix),
		Description: orDefault(firstNonEmpty(cmd.Help, cmd.Short)),
		Color:       HelpColor,
	}
	if len(cmd.Aliases) > 0 {
		e.Fields = append(e.Fields, chat.EmbedField{
			Name:  "Aliases",
			Value: strings.Join(cmd.Aliases, ", "),
		})
	}
	return e
}

func (d *Dispatcher) runUptime(ctx context.Context, c *Context) error {
	up, ok := d.Uptime()
	if !ok {
		_, err := c.Send(ctx, "Not connected yet.")
		return err
	}
	_, err := c.Send(ctx, "Online for "+up.Round(time.Second).String()+".")
	return err
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoHelpText
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
