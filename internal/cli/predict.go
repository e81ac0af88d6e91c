package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/analytics"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/predict"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
)

type predictOptions struct {
	matrix    string
	noCache   bool
	analytics bool
	render    string
}

func (c *CLI) predictCommand() *cobra.Command {
	var opts predictOptions

	cmd := &cobra.Command{
		Use:   "predict <graph.json>",
		Short: "Predict the next steps of a graph file",
		Long: `Send a graph file to the prediction backend once and list the proposed next
steps, filtered by the graph's probability and support thresholds unless it
has auto set.`,
		Example: `  nextstep predict order.json
  nextstep predict order.json --matrix "Simple IOR Choice" --analytics
  nextstep predict order.json --render order-next.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPredict(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.matrix, "matrix", "m", "", "matrix to predict with (default from the file)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the prediction cache")
	cmd.Flags().BoolVar(&opts.analytics, "analytics", false, "also fetch variants, coverage and fitness")
	cmd.Flags().StringVar(&opts.render, "render", "", "write an SVG with the previews to this file")

	return cmd
}

func (c *CLI) runPredict(ctx context.Context, path string, opts predictOptions) error {
	logger := commandLogger(ctx, "predict")

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	g, err := loadGraphFile(path)
	if err != nil {
		return err
	}
	if opts.matrix != "" {
		if err := g.SetMatrix(opts.matrix); err != nil {
			return err
		}
	}
	s := g.Settings()
	s.ShowPreview = true
	if err := g.SetSettings(s); err != nil {
		return err
	}
	cfg.Graph.Matrix = s.Matrix

	ch, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	b, err := c.session(ctx, cfg)
	if err != nil {
		return err
	}

	r := predict.NewReconciler(g, predictor(b, ch, cfg),
		predict.WithLogger(logger),
		predict.WithTimeout(cfg.Backend.Timeout.Std()))
	defer r.Close()

	var out predict.Outcome
	prog := newProgress(logger)
	err = withSpinner(ctx, "Predicting with "+s.Matrix+"...", "Predicted next steps", func(ctx context.Context) error {
		var err error
		if out, err = r.Reconcile(ctx); err != nil {
			return err
		}
		return out.Err
	})
	if err != nil {
		prog.failed("prediction failed", err)
		return err
	}
	prog.done("reconciled", "merged", len(out.Merged), "filtered", out.Filtered, "skipped", len(out.Skipped))

	printGraphStats(g)
	rows := previewRows(g)
	if len(rows) == 0 {
		printInfo("No next steps above the thresholds (probability %.2f, support %d)", s.ProbabilityMin, s.SupportMin)
	} else {
		fmt.Println(renderTable([]string{"After", "Next step", "Cell", "Probability", "Support"}, rows))
	}
	if out.Filtered > 0 {
		printDetail("%d proposals below the thresholds", out.Filtered)
	}

	if opts.render != "" {
		svg, err := nodelink.RenderGraph(ctx, g, nodelink.Options{Detailed: true})
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render %s", path)
		}
		if err := os.WriteFile(opts.render, svg, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.render, err)
		}
		printFile(opts.render)
	}

	if opts.analytics {
		ref := c.newRefresher(b, ch, cfg)
		defer ref.Close()
		ref.Refresh(s.Matrix, out.Sent)
		ref.Wait()
		printReport(ref.Report())
	}
	return nil
}

// previewRows lists each preview with the confirmed node it follows.
func previewRows(g *graph.Graph) [][]string {
	snap := g.Snapshot()
	after := make(map[string]string)
	for _, e := range snap.Edges {
		after[e.To] = e.From
	}
	var rows [][]string
	for _, n := range snap.Nodes {
		if !n.IsPreview() {
			continue
		}
		from := after[n.ID()]
		if p, ok := g.Node(from); ok && p.Caption != "" {
			from = p.Caption
		}
		rows = append(rows, []string{
			from,
			n.ActualKey(),
			fmt.Sprintf("%d,%d", n.GridX, n.GridY),
			strconv.FormatFloat(n.Probability, 'f', 2, 64),
			strconv.Itoa(n.Support),
		})
	}
	return rows
}

func printReport(rep analytics.Report) {
	fmt.Println()
	fmt.Println(StyleTitle.Render("Analytics"))
	if rep.StatsErr != nil {
		printWarning("Variants unavailable: %s", errors.UserMessage(rep.StatsErr))
	} else {
		printKeyValue("Variants", fmt.Sprintf("%d (%d covered)", len(rep.Variants.Variants), rep.Variants.Covered()))
		printKeyValue("Coverage", fmt.Sprintf("%.1f%% variants, %.1f%% log", rep.Metrics.VariantCoverage*100, rep.Metrics.EventLogCoverage*100))
	}
	switch {
	case rep.FitnessErr != nil:
		printWarning("Fitness unavailable: %s", errors.UserMessage(rep.FitnessErr))
	case rep.Fitness != nil:
		printKeyValue("Fitness", strconv.FormatFloat(*rep.Fitness, 'f', 3, 64))
	}
}
