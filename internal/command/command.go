package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Handler runs one command invocation.
type Handler func(ctx context.Context, c *Context) error

// Command is a named handler with its help metadata.
type Command struct {
	// Name is the primary invocation name.
	Name string

	// Aliases are alternative names.
	Aliases []string

	// Usage describes the arguments, e.g. "<key> [value]".
	Usage string

	// Short is the one-line summary shown in the command list.
	Short string

	// Help is the long description shown by "help <name>".
	// When empty, Short is used.
	Help string

	// Hidden commands are callable but not listed by help.
	Hidden bool

	// OwnerOnly commands are refused for users outside the owner list.
	OwnerOnly bool

	Run Handler
}

// Signature is the name followed by usage, as shown in help.
func (c *Command) Signature(prefix string) string {
	return strings.TrimSpace(prefix + c.Name + " " + c.Usage)
}

// Registry holds commands keyed by case-folded name and alias.
//
// Thread-safety: safe for concurrent use; registration usually happens
// before the engine starts.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Command
	all    []*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// foldKey normalizes a command name for case-insensitive lookup.
// cases.Caser is stateful, so each call builds its own.
func foldKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Register adds cmd. Names and aliases must be unique across the registry.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" {
		return fmt.Errorf("command has no name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %q has no handler", cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, 1+len(cmd.Aliases))
	for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
		key := foldKey(name)
		if _, exists := r.byName[key]; exists {
			return fmt.Errorf("command name %q already registered", name)
		}
		keys = append(keys, key)
	}

	c := cmd
	for _, key := range keys {
		r.byName[key] = &c
	}
	r.all = append(r.all, &c)
	return nil
}

// MustRegister is Register that panics on error, for static command tables.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a command by name or alias, ignoring case.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[foldKey(name)]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	out := make([]*Command, len(r.all))
	copy(out, r.all)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return foldKey(out[i].Name) < foldKey(out[j].Name)
	})
	return out
}
