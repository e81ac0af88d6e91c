package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/predict"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
	"github.com/matzehuels/nextstep/pkg/workspace"
)

// nodeView is the API form of a node, previews included.
type nodeView struct {
	ID          string  `json:"id"`
	ActualKey   string  `json:"actualKey"`
	Preview     bool    `json:"preview"`
	Kind        string  `json:"kind"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	RealX       float64 `json:"realX"`
	RealY       float64 `json:"realY"`
	Caption     string  `json:"caption"`
	Comment     string  `json:"comment"`
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
	Support     int     `json:"support"`
	Selected    bool    `json:"selected"`
}

// outcomeView summarizes the last reconciliation of a tab.
type outcomeView struct {
	Matrix    string                     `json:"matrix,omitempty"`
	Proposals int                        `json:"proposals"`
	Filtered  int                        `json:"filtered"`
	Merged    []string                   `json:"merged"`
	Skipped   int                        `json:"skipped"`
	Analytics map[string]json.RawMessage `json:"analytics,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Duration  string                     `json:"duration"`
}

// tabView is the full state of one tab.
type tabView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Root      string         `json:"root"`
	Settings  graph.Settings `json:"settings"`
	Nodes     []nodeView     `json:"nodes"`
	Edges     [][2]string    `json:"edges"`
	Selected  []string       `json:"selected"`
	Reconcile outcomeView    `json:"reconcile"`
	Busy      bool           `json:"busy"`
}

func newNodeView(n graph.Node) nodeView {
	return nodeView{
		ID:          n.ID(),
		ActualKey:   n.ActualKey(),
		Preview:     n.IsPreview(),
		Kind:        n.Kind.String(),
		X:           n.GridX,
		Y:           n.GridY,
		RealX:       n.PixelX,
		RealY:       n.PixelY,
		Caption:     n.Caption,
		Comment:     n.Comment,
		Color:       n.Color,
		Probability: n.Probability,
		Support:     n.Support,
		Selected:    n.Selected,
	}
}

func newOutcomeView(o predict.Outcome) outcomeView {
	v := outcomeView{
		Matrix:    o.Matrix,
		Proposals: o.Proposals,
		Filtered:  o.Filtered,
		Merged:    o.Merged,
		Skipped:   len(o.Skipped),
		Analytics: o.Analytics,
		Duration:  o.Duration.String(),
	}
	if v.Merged == nil {
		v.Merged = []string{}
	}
	if o.Err != nil {
		v.Error = errors.UserMessage(o.Err)
	}
	return v
}

func (s *Server) newTabView(t *workspace.Tab) tabView {
	name, _ := s.ws.Name(t.ID())
	snap := t.Graph.Snapshot()
	v := tabView{
		ID:        t.ID(),
		Name:      name,
		Root:      snap.Root,
		Settings:  snap.Settings,
		Nodes:     make([]nodeView, len(snap.Nodes)),
		Edges:     make([][2]string, len(snap.Edges)),
		Selected:  []string{},
		Reconcile: newOutcomeView(t.Reconciler.Last()),
		Busy:      t.Reconciler.Busy(),
	}
	for i, n := range snap.Nodes {
		v.Nodes[i] = newNodeView(n)
		if n.Selected {
			v.Selected = append(v.Selected, n.ID())
		}
	}
	for i, e := range snap.Edges {
		v.Edges[i] = [2]string{e.From, e.To}
	}
	return v
}

// tab resolves the {tabID} URL parameter, answering 404 itself.
func (s *Server) tab(w http.ResponseWriter, r *http.Request) (*workspace.Tab, bool) {
	t, err := s.ws.Tab(chi.URLParam(r, "tabID"))
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return t, true
}

func (s *Server) listTabs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ws.Tabs())
}

type createTabRequest struct {
	Name string `json:"name" validate:"max=256"`
}

func (s *Server) createTab(w http.ResponseWriter, r *http.Request) {
	var req createTabRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name != "" {
		if err := errors.ValidateName(req.Name); err != nil {
			respondError(w, err)
			return
		}
	}
	t := s.ws.NewTab(req.Name)
	respondJSON(w, http.StatusCreated, s.newTabView(t))
}

func (s *Server) importDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	t, err := s.ws.ImportDocument(r.URL.Query().Get("name"), data)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.newTabView(t))
}

type petriRequest struct {
	Name string          `json:"name" validate:"required,max=256"`
	Net  json.RawMessage `json:"net" validate:"required"`
}

func (s *Server) importPetriNet(w http.ResponseWriter, r *http.Request) {
	var req petriRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	t, err := s.ws.ImportPetriNet(req.Name, req.Net)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.newTabView(t))
}

func (s *Server) getTab(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.newTabView(t))
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

func (s *Server) renameTab(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "tabID")
	if err := s.ws.RenameTab(id, req.Name); err != nil {
		respondError(w, err)
		return
	}
	s.getTab(w, r)
}

func (s *Server) closeTab(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.CloseTab(chi.URLParam(r, "tabID")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.ws.Tabs())
}

func (s *Server) activateTab(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Activate(chi.URLParam(r, "tabID")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.ws.Tabs())
}

type settingsRequest struct {
	Probability *float64 `json:"probability" validate:"omitempty,gte=0,lte=1"`
	Support     *int     `json:"support" validate:"omitempty,gte=0"`
	Auto        *bool    `json:"auto"`
	Matrix      *string  `json:"matrix" validate:"omitempty,min=1,max=256"`
	ShowPreview *bool    `json:"showPreview"`
}

func (req settingsRequest) apply(s graph.Settings) graph.Settings {
	if req.Probability != nil {
		s.ProbabilityMin = *req.Probability
	}
	if req.Support != nil {
		s.SupportMin = *req.Support
	}
	if req.Auto != nil {
		s.Auto = *req.Auto
	}
	if req.Matrix != nil {
		s.Matrix = *req.Matrix
	}
	if req.ShowPreview != nil {
		s.ShowPreview = *req.ShowPreview
	}
	return s
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := t.Graph.SetSettings(req.apply(t.Graph.Settings())); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t.Graph.Settings())
}

// reconcile runs a cycle synchronously and reports it. It answers 409
// while a cycle is already in flight.
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	out, err := t.Reconciler.Reconcile(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newOutcomeView(out))
}

func (s *Server) copyTab(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tabID")
	if err := s.ws.Copy(id); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.ws.Clipboard())
}

type pasteRequest struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

type importView struct {
	Added    []string          `json:"added"`
	IDs      map[string]string `json:"ids"`
	Dangling [][2]string       `json:"dangling"`
}

func newImportView(res graph.ImportResult) importView {
	v := importView{Added: res.Added, IDs: res.IDs, Dangling: [][2]string{}}
	if v.Added == nil {
		v.Added = []string{}
	}
	for _, e := range res.Dangling {
		v.Dangling = append(v.Dangling, [2]string{e.From, e.To})
	}
	return v
}

func (s *Server) paste(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}
	res, err := s.ws.Paste(chi.URLParam(r, "tabID"), req.DX, req.DY)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(res.Dangling) > 0 {
		s.logger.Warn("pasted edges skipped", "count", len(res.Dangling))
	}
	respondJSON(w, http.StatusOK, newImportView(res))
}

func (s *Server) saveTab(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ws.Save(r.Context(), chi.URLParam(r, "tabID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) exportTab(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	data, err := pkgio.Marshal(t.Graph, pkgio.Options{KeepSelectedEdges: true})
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "export"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) renderTab(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := nodelink.Options{
		Detailed:     boolParam(q.Get("detailed")),
		HidePreviews: boolParam(q.Get("hidePreviews")),
		Positioned:   boolParam(q.Get("positioned")),
	}
	svg, err := nodelink.RenderGraph(r.Context(), t.Graph, opts)
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "render"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (s *Server) autoPosition(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		respondError(w, errors.New(errors.ErrCodeUnsupported, "no prediction backend configured"))
		return
	}
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	moved, err := applyAutoPosition(r.Context(), s.backend, t.Graph)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

func applyAutoPosition(ctx context.Context, b Backend, g *graph.Graph) (int, error) {
	pos, err := b.AutoPosition(ctx)
	if err != nil {
		return 0, err
	}
	return g.ApplyPositions(pos), nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
