package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nextstep/pkg/graph"
)

func testGraph(t *testing.T) (*graph.Graph, string, string) {
	t.Helper()
	g := graph.New()
	a, err := g.AddNode(graph.DefaultRootID)
	if err != nil {
		t.Fatal(err)
	}
	_ = g.SetCaption(a, "Check claim")
	res := g.MergePreviews([]graph.Proposal{
		{Predecessor: a, GridX: 2, GridY: 0, ActualKey: "Pay", Probability: 0.75, Support: 4},
	}, nil)
	if len(res.Added) != 1 {
		t.Fatalf("MergePreviews() added %v, want one", res.Added)
	}
	return g, a, res.Added[0]
}

func TestToDOT(t *testing.T) {
	g, a, preview := testGraph(t)
	dot := ToDOT(g.Snapshot(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR",
		`label="Check claim"`,
		`"` + graph.DefaultRootID + `" -> "` + a + `"`,
		`"` + a + `" -> "` + preview + `"`,
		`style="rounded,filled,dashed"`,
		"penwidth=2",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "p=0.75") {
		t.Error("ToDOT() without Detailed contains preview statistics")
	}
}

func TestToDOTOptions(t *testing.T) {
	g, _, preview := testGraph(t)

	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{"detailed", Options{Detailed: true}, []string{`p=0.75 s=4`}, nil},
		{"hide previews", Options{HidePreviews: true}, nil, []string{preview, "dashed"}},
		{"positioned", Options{Positioned: true}, []string{`pos="0,0!"`, `pos="1,0!"`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(g.Snapshot(), tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("ToDOT() missing %q:\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("ToDOT() contains %q:\n%s", w, dot)
				}
			}
		})
	}
}

func TestToDOTPetriKinds(t *testing.T) {
	g := graph.New(graph.WithoutRoot())
	_, err := g.Import(graph.Batch{Nodes: []graph.ImportNode{
		{SourceID: "p1", ActualKey: "p1", Kind: graph.KindPlace},
		{SourceID: "t1", ActualKey: "t1", Kind: graph.KindTransition, GridX: 1, Caption: "Pay"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g.Snapshot(), Options{})
	if !strings.Contains(dot, "shape=circle") {
		t.Errorf("ToDOT() draws no place as a circle:\n%s", dot)
	}
}

func TestRenderGraph(t *testing.T) {
	g, _, _ := testGraph(t)
	svg, err := RenderGraph(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("RenderGraph() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Check claim") {
		t.Errorf("RenderGraph() output is not an SVG of the graph")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
