package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
)

type renderOptions struct {
	output     string
	detailed   bool
	positioned bool
	dot        bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render a graph file as SVG",
		Long: `Render a graph file as an SVG flow diagram using Graphviz.

Saved graph files hold confirmed nodes only; use "nextstep predict --render"
to include previews.`,
		Example: `  nextstep render order.json
  nextstep render order.json --positioned -o order.svg
  nextstep render order.json --dot > order.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraphFile(args[0])
			if err != nil {
				return err
			}
			return c.runRender(cmd, g, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>.svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add comments, probability and support to labels")
	cmd.Flags().BoolVar(&opts.positioned, "positioned", false, "pin nodes to their grid cells")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "print the DOT source instead of rendering")

	return cmd
}

// loadGraphFile reads a graph file into a rootless graph, taking the
// file's settings.
func loadGraphFile(path string) (*graph.Graph, error) {
	if err := errors.ValidateGraphFile(filepath.Base(path)); err != nil {
		return nil, err
	}
	g := graph.New(graph.WithoutRoot())
	if _, err := pkgio.ImportJSON(path, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (c *CLI) runRender(cmd *cobra.Command, g *graph.Graph, input string, opts renderOptions) error {
	ctx := cmd.Context()
	nl := nodelink.Options{Detailed: opts.detailed, Positioned: opts.positioned}

	if opts.dot {
		_, err := fmt.Fprint(cmd.OutOrStdout(), nodelink.ToDOT(g.Snapshot(), nl))
		return err
	}

	prog := newProgress(commandLogger(ctx, "render"))
	svg, err := nodelink.RenderGraph(ctx, g, nl)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", input)
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	if err := os.WriteFile(out, svg, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	prog.done("rendered", "file", out)

	printSuccess("Rendered %s", filepath.Base(input))
	printGraphStats(g)
	printFile(out)
	return nil
}
