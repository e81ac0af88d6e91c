package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

func TestRoundTrip(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(graph.DefaultRootID)
	b, _ := g.AddNode(a)
	_ = g.SetComment(a, "check invoice")
	_ = g.SetMatrix("Loop Matrix")
	_ = g.ToggleSelect(b)

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf, Options{KeepSelectedEdges: true}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	h := graph.New(graph.WithoutRoot())
	res, err := ReadJSON(&buf, h, ReadOptions{ApplySettings: true})
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	if h.NodeCount() != 3 || h.EdgeCount() != 2 {
		t.Fatalf("loaded %d nodes, %d edges, want 3 and 2", h.NodeCount(), h.EdgeCount())
	}
	if h.Root() != graph.DefaultRootID {
		t.Errorf("Root() = %q, want %q", h.Root(), graph.DefaultRootID)
	}
	if h.Settings().Matrix != "Loop Matrix" {
		t.Errorf("Matrix = %q, want Loop Matrix", h.Settings().Matrix)
	}

	want, _ := g.Node(a)
	got, ok := h.Node(res.IDs[a])
	if !ok {
		t.Fatalf("node %s not imported", a)
	}
	if got.Comment != want.Comment || got.Color != want.Color {
		t.Errorf("node = %+v, want comment and colour of %+v", got, want)
	}
	if got.GridX != want.GridX || got.GridY != want.GridY || got.PixelX != want.PixelX {
		t.Errorf("position = (%d,%d,%v), want (%d,%d,%v)", got.GridX, got.GridY, got.PixelX, want.GridX, want.GridY, want.PixelX)
	}
	if !h.HasEdge(res.IDs[a], res.IDs[b]) {
		t.Error("edge a-b lost")
	}
}

func TestEncodeExcludes(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(graph.DefaultRootID)
	g.MergePreviews([]graph.Proposal{
		{Predecessor: a, GridX: 3, GridY: 4, ActualKey: "Pay", Probability: 0.5, Support: 2},
	}, nil)
	_ = g.ToggleSelect(a)

	tests := []struct {
		name      string
		opts      Options
		wantNodes int
		wantEdges int
	}{
		{"backend", Options{}, 2, 0},
		{"file", Options{KeepSelectedEdges: true}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Encode(g.Snapshot(), tt.opts)
			if len(doc.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(doc.Nodes), tt.wantNodes)
			}
			if len(doc.Edges) != tt.wantEdges {
				t.Errorf("edges = %v, want %d", doc.Edges, tt.wantEdges)
			}
			for _, n := range doc.Nodes {
				if n.ActualKey == "Pay" {
					t.Error("preview node was encoded")
				}
			}
		})
	}
}

func TestMarshalSelection(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(graph.DefaultRootID)
	b, _ := g.AddNode(a)
	_, _ = g.AddNode(b)
	_ = g.ToggleSelect(a)
	_ = g.ToggleSelect(b)

	data, err := MarshalSelection(g)
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 || doc.Root != "" {
		t.Errorf("selection doc = %d nodes, %d edges, root %q; want 2, 1, none", len(doc.Nodes), len(doc.Edges), doc.Root)
	}

	res, err := Unmarshal(data, g, ReadOptions{OffsetX: 0, OffsetY: 2})
	if err != nil {
		t.Fatalf("paste error: %v", err)
	}
	if g.NodeCount() != 6 {
		t.Errorf("NodeCount() after paste = %d, want 6", g.NodeCount())
	}
	orig, _ := g.Node(a)
	pasted, _ := g.Node(res.IDs[a])
	if pasted.GridX != orig.GridX || pasted.GridY != orig.GridY+2 {
		t.Errorf("pasted cell = (%d,%d), want (%d,%d)", pasted.GridX, pasted.GridY, orig.GridX, orig.GridY+2)
	}
	if g.Root() != graph.DefaultRootID {
		t.Errorf("paste changed root to %q", g.Root())
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts ReadOptions
	}{
		{"syntax", `{`, ReadOptions{}},
		{"no nodes", `{"edges":[]}`, ReadOptions{}},
		{"no edges", `{"nodes":[]}`, ReadOptions{}},
		{"empty id", `{"nodes":[{"id":""}],"edges":[]}`, ReadOptions{}},
		{"duplicate id", `{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}`, ReadOptions{}},
		{"short edge", `{"nodes":[{"id":"a"}],"edges":[["a"]]}`, ReadOptions{}},
		{"unknown kind", `{"nodes":[{"id":"a","kind":"cloud"}],"edges":[]}`, ReadOptions{}},
		{"bad probability", `{"nodes":[{"id":"a","probability":2}],"edges":[]}`, ReadOptions{}},
		{"foreign root", `{"nodes":[{"id":"a"}],"edges":[],"root":"b"}`, ReadOptions{}},
		{"bad settings", `{"nodes":[],"edges":[],"probability":3,"matrix":"m"}`, ReadOptions{ApplySettings: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			events := 0
			g.Subscribe(func(graph.Event) { events++ })

			_, err := Unmarshal([]byte(tt.data), g, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidPayload) {
				t.Errorf("Unmarshal() error = %v, want %s", err, errors.ErrCodeInvalidPayload)
			}
			if g.NodeCount() != 1 || events != 0 {
				t.Errorf("graph changed: %d nodes, %d events", g.NodeCount(), events)
			}
		})
	}
}

func TestUnmarshalDangling(t *testing.T) {
	g := graph.New()
	data := `{"nodes":[{"id":"a","x":2,"y":3},{"id":"b","x":3,"y":3}],"edges":[["a","b"],["a","ghost"]]}`
	res, err := Unmarshal([]byte(data), g, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dangling) != 1 || res.Dangling[0].To != "ghost" {
		t.Errorf("Dangling = %v, want the ghost edge", res.Dangling)
	}
	if !g.HasEdge(res.IDs["a"], res.IDs["b"]) {
		t.Error("valid edge not imported")
	}
	n, _ := g.Node(res.IDs["a"])
	if n.GridX != 2 || n.GridY != 3 {
		t.Errorf("cell = (%d,%d), want grid cell (2,3) without pixels", n.GridX, n.GridY)
	}
}

func TestExportImportFile(t *testing.T) {
	g := graph.New()
	_, _ = g.AddNode(graph.DefaultRootID)
	path := filepath.Join(t.TempDir(), "model.json")
	if err := ExportJSON(g, path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	h := graph.New(graph.WithoutRoot())
	if _, err := ImportJSON(path, h); err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if h.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", h.NodeCount())
	}

	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"), h)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestReadPetriNet(t *testing.T) {
	net := `{"places":[{"id":"p1","x":0,"y":0},{"id":"p2","x":2,"y":0}],` +
		`"transitions":[{"id":"t1","label":"Pay","x":1,"y":0}],` +
		`"arcs":[{"source":"p1","target":"t1"},{"source":"t1","target":"p2"}]}`
	quoted, _ := json.Marshal(net)

	tests := []struct {
		name string
		data string
	}{
		{"bare", net},
		{"wrapped string", `{"net":` + string(quoted) + `}`},
		{"wrapped object", `{"net":` + net + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			res, err := ReadPetriNet([]byte(tt.data), g)
			if err != nil {
				t.Fatalf("ReadPetriNet() error: %v", err)
			}
			if len(res.Added) != 3 || g.EdgeCount() != 2 {
				t.Fatalf("imported %d nodes, %d edges, want 3 and 2", len(res.Added), g.EdgeCount())
			}
			tr, _ := g.Node(res.IDs["t:t1"])
			if tr.Kind != graph.KindTransition || tr.Caption != "Pay" {
				t.Errorf("transition = %+v, want kind transition captioned Pay", tr)
			}
			if tr.GridX != 6 || tr.GridY != 3 {
				t.Errorf("transition cell = (%d,%d), want (6,3)", tr.GridX, tr.GridY)
			}
			p, _ := g.Node(res.IDs["p:p1"])
			if p.Kind != graph.KindPlace || p.Caption != "" {
				t.Errorf("place = %+v, want kind place without caption", p)
			}
		})
	}
}

func TestReadPetriNetSharedIDs(t *testing.T) {
	net := `{"places":[{"id":"a","x":0,"y":0},{"id":"b","x":2,"y":0}],` +
		`"transitions":[{"id":"a","label":"Check","x":1,"y":0}],` +
		`"arcs":[{"source":"a","target":"a"},{"source":"a","target":"b"}]}`
	g := graph.New(graph.WithoutRoot())
	res, err := ReadPetriNet([]byte(net), g)
	if err != nil {
		t.Fatalf("ReadPetriNet() error: %v", err)
	}
	if len(res.Added) != 3 || g.EdgeCount() != 2 {
		t.Fatalf("imported %d nodes, %d edges, want 3 and 2", len(res.Added), g.EdgeCount())
	}
	place, tr := res.IDs["p:a"], res.IDs["t:a"]
	if place == tr {
		t.Fatalf("place and transition a share node %q", place)
	}
	if n, _ := g.Node(place); n.Kind != graph.KindPlace {
		t.Errorf("p:a kind = %v, want place", n.Kind)
	}
	if n, _ := g.Node(tr); n.Kind != graph.KindTransition || n.Caption != "Check" {
		t.Errorf("t:a = %+v, want transition captioned Check", n)
	}
	if !g.HasEdge(place, tr) {
		t.Error("missing arc from place a to transition a")
	}
	if !g.HasEdge(tr, res.IDs["p:b"]) {
		t.Error("missing arc from transition a to place b")
	}
}

func TestParsePetriNetInvalid(t *testing.T) {
	for _, data := range []string{`[]`, `{"places":[]}`, `{"net":"{"}`} {
		if _, err := ParsePetriNet([]byte(data)); !errors.Is(err, errors.ErrCodeInvalidPayload) {
			t.Errorf("ParsePetriNet(%s) error = %v, want %s", data, err, errors.ErrCodeInvalidPayload)
		}
	}
}

func TestApplyPositions(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(graph.DefaultRootID)
	inner, _ := json.Marshal(map[string][]float64{a: {4, 5.6}, "gone": {1, 1}})
	data := `{"positions":` + quote(string(inner)) + `}`

	n, err := ApplyPositions([]byte(data), g)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("ApplyPositions() = %d, want 1", n)
	}
	node, _ := g.Node(a)
	if node.GridX != 4 || node.GridY != 6 {
		t.Errorf("cell = (%d,%d), want (4,6)", node.GridX, node.GridY)
	}

	if _, err := ParsePositions([]byte(`{"positions":{"a":[1]}}`)); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("ParsePositions(short) error = %v, want %s", err, errors.ErrCodeInvalidPayload)
	}
}

func TestDecodeEmbedded(t *testing.T) {
	var v struct{ A int }
	for _, raw := range []string{`{"A":1}`, `"{\"A\":1}"`, ` "{\"A\":1}" `} {
		v.A = 0
		if err := DecodeEmbedded(json.RawMessage(raw), &v); err != nil || v.A != 1 {
			t.Errorf("DecodeEmbedded(%s) = %v, A=%d; want A=1", raw, err, v.A)
		}
	}
	for _, raw := range []string{``, `null`, `"nope"`} {
		if err := DecodeEmbedded(json.RawMessage(raw), &v); err == nil {
			t.Errorf("DecodeEmbedded(%q) succeeded, want error", raw)
		}
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
