package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/roach88/missy/internal/cli.Version=...".
var Version = "dev"

// VersionInfo is the structured form of the version command's output.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Go      string `json:"go" yaml:"go"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.Formatter(cmd)
			if f.structured() {
				return f.Success(VersionInfo{Version: Version, Go: runtime.Version()})
			}
			return f.Success("missy " + Version)
		},
	}
}
