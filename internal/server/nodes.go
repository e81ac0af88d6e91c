package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/geom"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// addNodeRequest adds a node after From, or at (X, Y) without an edge when
// From is empty.
type addNodeRequest struct {
	From    string `json:"from"`
	X       *int   `json:"x" validate:"required_without=From"`
	Y       *int   `json:"y" validate:"required_without=From"`
	Caption string `json:"caption" validate:"max=1024"`
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req addNodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var (
		id  string
		err error
	)
	if req.From != "" {
		id, err = t.Graph.AddNode(req.From)
		if err == nil && req.Caption != "" {
			err = t.Graph.SetCaption(id, req.Caption)
		}
	} else {
		id, err = t.Graph.AddNodeAt(*req.X, *req.Y, req.Caption)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	n, _ := t.Graph.Node(id)
	respondJSON(w, http.StatusCreated, newNodeView(n))
}

type updateNodeRequest struct {
	Caption *string `json:"caption" validate:"omitempty,max=1024"`
	Comment *string `json:"comment" validate:"omitempty,max=4096"`
	X       *int    `json:"x" validate:"required_with=Y"`
	Y       *int    `json:"y" validate:"required_with=X"`
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req updateNodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "nodeID")
	if req.Caption != nil {
		if err := t.Graph.SetCaption(id, *req.Caption); err != nil {
			respondError(w, err)
			return
		}
	}
	if req.Comment != nil {
		if err := t.Graph.SetComment(id, *req.Comment); err != nil {
			respondError(w, err)
			return
		}
	}
	if req.X != nil {
		if err := t.Graph.MoveTo(id, *req.X, *req.Y); err != nil {
			respondError(w, err)
			return
		}
	}
	n, ok := t.Graph.Node(id)
	if !ok {
		respondError(w, graph.ErrUnknownNode)
		return
	}
	respondJSON(w, http.StatusOK, newNodeView(n))
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	if err := t.Graph.RemoveNode(chi.URLParam(r, "nodeID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clickNode promotes a preview node or toggles the selection of a
// confirmed one.
func (s *Server) clickNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	id, err := t.Graph.Click(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	after, ok := t.Graph.Node(id)
	if !ok {
		respondError(w, errors.New(errors.ErrCodeInternal, "node %s vanished", id))
		return
	}
	respondJSON(w, http.StatusOK, newNodeView(after))
}

type dragRequest struct {
	DX  float64 `json:"dx"`
	DY  float64 `json:"dy"`
	End bool    `json:"end"`
}

// dragNode moves a node, or the selection it belongs to, by a pixel
// delta. With End set the drag set snaps to the grid afterwards.
func (s *Server) dragNode(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req dragRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "nodeID")
	if req.DX != 0 || req.DY != 0 {
		if err := t.Graph.DragBy(id, req.DX, req.DY); err != nil {
			respondError(w, err)
			return
		}
	}
	if req.End {
		if err := t.Graph.EndDrag(id); err != nil {
			respondError(w, err)
			return
		}
	}
	s.getTab(w, r)
}

type edgeRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required,nefield=From"`
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req edgeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := t.Graph.AddEdge(req.From, req.To); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, [2]string{req.From, req.To})
}

// removeEdge deletes the edge between the from and to query parameters in
// either direction.
func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if !t.Graph.RemoveEdge(q.Get("from"), q.Get("to")) {
		respondError(w, errors.New(errors.ErrCodeNotFound, "no edge between %q and %q", q.Get("from"), q.Get("to")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectRequest is a rubber-band rectangle in screen coordinates together
// with the view it was drawn in.
type selectRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Scale float64 `json:"scale" validate:"gte=0"`
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
}

func (s *Server) selectRect(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	view := geom.View{Scale: req.Scale, PanX: req.PanX, PanY: req.PanY}
	ids := t.Graph.SelectNodesInRect(view.ToWorld(geom.Rect{X: req.X, Y: req.Y, W: req.W, H: req.H}))
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, ids)
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	t.Graph.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

// deleteSelection removes the selected nodes, or with ?edge=true the edge
// between exactly two selected nodes.
func (s *Server) deleteSelection(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tab(w, r)
	if !ok {
		return
	}
	if boolParam(r.URL.Query().Get("edge")) {
		respondJSON(w, http.StatusOK, map[string]bool{"removed": t.Graph.DeleteSelectedEdge()})
		return
	}
	removed := t.Graph.DeleteSelectedNodes()
	if removed == nil {
		removed = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"removed": removed})
}
