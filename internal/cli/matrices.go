package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/internal/config"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
)

func (c *CLI) matricesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "matrices",
		Aliases: []string{"matrix"},
		Short:   "Manage the backend's prediction matrices",
		Long: `List, pick, upload and remove the prediction matrices known to the backend.

Predefined matrices ship with the backend. Custom matrices are uploaded as CSV
and may carry an event log (XES) used for variants, coverage and fitness.`,
	}

	cmd.AddCommand(c.matricesListCommand())
	cmd.AddCommand(c.matricesPickCommand())
	cmd.AddCommand(c.matricesUploadCommand())
	cmd.AddCommand(c.matricesLogCommand())
	cmd.AddCommand(c.matricesRemoveCommand())

	return cmd
}

// withSession loads the config and runs fn against a backend with a
// started session.
func (c *CLI) withSession(ctx context.Context, fn func(cfg config.Config, b *backend.Client) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	b, err := c.session(ctx, cfg)
	if err != nil {
		return err
	}
	return fn(cfg, b)
}

func (c *CLI) matricesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available matrices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(cfg config.Config, b *backend.Client) error {
				m, err := b.Matrices(cmd.Context())
				if err != nil {
					return err
				}
				rows := matrixRows(m)
				cells := make([][]string, len(rows))
				for i, r := range rows {
					cells[i] = r.cells()
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(matrixHeaders, cells))
				printDetail("%d matrices, default %s", len(rows), cfg.Graph.Matrix)
				return nil
			})
		},
	}
}

func (c *CLI) matricesPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick a matrix interactively and select it on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withSession(ctx, func(cfg config.Config, b *backend.Client) error {
				m, err := b.Matrices(ctx)
				if err != nil {
					return err
				}
				name, err := pickMatrix(matrixRows(m), cfg.Graph.Matrix)
				if err != nil {
					return err
				}
				if name == "" {
					printInfo("No matrix selected")
					return nil
				}
				if err := b.ChangeMatrix(ctx, name, nil); err != nil {
					return err
				}
				printSuccess("Selected %s", StyleHighlight.Render(name))
				printNextStep("Make it the default", fmt.Sprintf("export %sMATRIX=%q", config.EnvPrefix, name))
				return nil
			})
		},
	}
}

func (c *CLI) matricesUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "upload <name> <matrix.csv>",
		Short:   "Upload a custom matrix",
		Example: `  nextstep matrices upload "Order handling" order.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if err := errors.ValidateName(name); err != nil {
				return err
			}
			f, err := openUpload(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			return c.withSession(ctx, func(cfg config.Config, b *backend.Client) error {
				err := withSpinner(ctx, "Uploading "+name+"...", "Uploaded "+name, func(ctx context.Context) error {
					return b.ChangeMatrix(ctx, name, f)
				})
				if err != nil {
					return err
				}
				printNextStep("Attach an event log", fmt.Sprintf("nextstep matrices log %q log.xes", name))
				return nil
			})
		},
	}
}

func (c *CLI) matricesLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "log <name> <log.xes>",
		Short:   "Attach an event log to a custom matrix",
		Example: `  nextstep matrices log "Order handling" orders.xes`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			f, err := openUpload(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			return c.withSession(ctx, func(cfg config.Config, b *backend.Client) error {
				return withSpinner(ctx, "Uploading event log...", "Attached log to "+name, func(ctx context.Context) error {
					return b.AddLog(ctx, name, f)
				})
			})
		},
	}
}

func (c *CLI) matricesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a custom matrix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := cmd.Context()
			return c.withSession(ctx, func(cfg config.Config, b *backend.Client) error {
				if err := b.RemoveMatrix(ctx, name); err != nil {
					return err
				}
				printSuccess("Removed %s", name)
				if name == cfg.Graph.Matrix {
					printWarning("%s was the configured default; graphs fall back to %s", name, graph.DefaultMatrix)
				}
				return nil
			})
		},
	}
}

func openUpload(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "%s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
