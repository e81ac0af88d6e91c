package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/buildinfo"
)

// SetVersion overrides the build information shown by --version. Release
// builds inject it with ldflags instead; this is for wrappers that embed
// the CLI.
func SetVersion(v, c, d string) {
	buildinfo.Version = v
	buildinfo.Commit = c
	buildinfo.Date = d
}

// Execute runs the nextstep CLI with os.Args and returns an error if any
// command fails.
//
// Logging:
//   - Default: info level, or the level set in the config file
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		return preRun(cmd, args)
	}

	return root.ExecuteContext(ctx)
}
