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
)

func (c *CLI) petriCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "petri <net.json>",
		Short: "Convert a Petri net into a graph file",
		Long: `Convert a Petri net (places, transitions and arcs as JSON) into a graph file
that the editor can open. Transitions become activities and places become
the connecting nodes, positioned by their cells in the net.`,
		Example: `  nextstep petri order-net.json
  nextstep petri order-net.json -o order.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPetri(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "graph file to write (default <input>-graph.json)")

	return cmd
}

func (c *CLI) runPetri(cmd *cobra.Command, input, output string) error {
	prog := newProgress(commandLogger(cmd.Context(), "petri"))

	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeFileNotFound, "petri net %s not found", input)
		}
		return fmt.Errorf("read %s: %w", input, err)
	}

	s := graph.DefaultSettings()
	s.ShowPreview = false
	g := graph.New(graph.WithoutRoot(), graph.WithSettings(s))
	res, err := pkgio.ReadPetriNet(data, g)
	if err != nil {
		return err
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "-graph.json"
	}
	if err := errors.ValidateGraphFile(filepath.Base(output)); err != nil {
		return err
	}
	if err := pkgio.ExportJSON(g, output); err != nil {
		return err
	}
	prog.done("converted", "nodes", len(res.Added), "dangling", len(res.Dangling), "dropped", len(res.Dropped))

	printSuccess("Converted %s", filepath.Base(input))
	printGraphStats(g)
	if n := len(res.Dangling) + len(res.Dropped); n > 0 {
		printWarning("%d arcs skipped", n)
	}
	printFile(output)
	return nil
}
