package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nextstep/pkg/analytics"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/workspace"
)

// Multipart field names, matching what the backend itself accepts.
const (
	formMatrixName = "matrix_name"
	formFile       = "file"
)

// parseUpload reads the matrix name and the optional uploaded file of a
// multipart request. The returned file is nil when none was sent.
func parseUpload(r *http.Request) (string, multipart.File, error) {
	if err := r.ParseMultipartForm(maxBody); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid form")
	}
	name := r.FormValue(formMatrixName)
	f, _, err := r.FormFile(formFile)
	if err == http.ErrMissingFile {
		return name, nil, nil
	}
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
	}
	return name, f, nil
}

// reader converts a possibly nil file to a possibly nil reader, keeping
// the interface nil when there is no file.
func reader(f multipart.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}

// startSession starts the backend session with a matrix, optionally
// uploading it as CSV, and reconciles the active tab.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	name, f, err := parseUpload(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if f != nil {
		defer f.Close()
	}
	active := s.ws.Active()
	if name == "" && active != nil {
		name = active.Graph.Settings().Matrix
	}
	id, err := s.backend.StartSession(r.Context(), name, reader(f))
	if err != nil {
		respondError(w, err)
		return
	}
	if active != nil {
		active.Reconciler.Trigger()
	}
	respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "matrix": name})
}

func (s *Server) listMatrices(w http.ResponseWriter, r *http.Request) {
	m, err := s.backend.Matrices(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// changeMatrix switches the active tab to a matrix, uploading it first
// when a CSV file is attached.
func (s *Server) changeMatrix(w http.ResponseWriter, r *http.Request) {
	name, f, err := parseUpload(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if f != nil {
		defer f.Close()
	}
	if err := errors.ValidateName(name); err != nil {
		respondError(w, err)
		return
	}
	if err := s.backend.ChangeMatrix(r.Context(), name, reader(f)); err != nil {
		respondError(w, err)
		return
	}
	if t := s.ws.Active(); t != nil {
		if err := t.Graph.SetMatrix(name); err != nil {
			respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"matrix": name})
}

// removeMatrix deletes a custom matrix and moves every tab using it back
// to the default matrix.
func (s *Server) removeMatrix(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.backend.RemoveMatrix(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}
	changed := s.ws.DropMatrix(name)
	if changed == nil {
		changed = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"tabs": changed})
}

func (s *Server) addLog(w http.ResponseWriter, r *http.Request) {
	_, f, err := parseUpload(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if f == nil {
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "no event log uploaded"))
		return
	}
	defer f.Close()
	name := chi.URLParam(r, "name")
	if err := s.backend.AddLog(r.Context(), name, f); err != nil {
		respondError(w, err)
		return
	}
	if s.refresher != nil {
		if t := s.ws.Active(); t != nil {
			s.refreshFor(t)
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"matrix": name})
}

func (s *Server) petriNetImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.backend.PetriNetImage(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) petriNetFile(w http.ResponseWriter, r *http.Request) {
	data, err := s.backend.PetriNetFile(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="petri_net.pnml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// reportView is the API form of an analytics report.
type reportView struct {
	Matrix       string            `json:"matrix"`
	Variants     []backend.Variant `json:"variants"`
	Covered      int               `json:"covered"`
	Metrics      backend.Metrics   `json:"metrics"`
	Fitness      *float64          `json:"fitness"`
	StatsError   string            `json:"statsError,omitempty"`
	FitnessError string            `json:"fitnessError,omitempty"`
	Updated      *time.Time        `json:"updated,omitempty"`
}

func newReportView(rep analytics.Report) reportView {
	v := reportView{
		Matrix:   rep.Matrix,
		Variants: rep.Variants.Variants,
		Covered:  rep.Variants.Covered(),
		Metrics:  rep.Metrics,
		Fitness:  rep.Fitness,
	}
	if v.Variants == nil {
		v.Variants = []backend.Variant{}
	}
	if rep.StatsErr != nil {
		v.StatsError = errors.UserMessage(rep.StatsErr)
	}
	if rep.FitnessErr != nil {
		v.FitnessError = errors.UserMessage(rep.FitnessErr)
	}
	if !rep.Updated.IsZero() {
		v.Updated = &rep.Updated
	}
	return v
}

func (s *Server) analyticsReport(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newReportView(s.refresher.Report()))
}

// refreshAnalytics recomputes the analytics of the active tab and waits
// for the result.
func (s *Server) refreshAnalytics(w http.ResponseWriter, r *http.Request) {
	t := s.ws.Active()
	if t == nil {
		respondError(w, errors.New(errors.ErrCodeNotFound, "no active tab"))
		return
	}
	s.refreshFor(t)
	s.refresher.Wait()
	respondJSON(w, http.StatusOK, newReportView(s.refresher.Report()))
}

// refreshFor refreshes the analytics for tab t, keyed by the document of
// its last prediction.
func (s *Server) refreshFor(t *workspace.Tab) {
	last := t.Reconciler.Last()
	doc := last.Sent
	if doc == nil {
		var err error
		if doc, err = pkgio.Marshal(t.Graph, pkgio.Options{}); err != nil {
			s.logger.Warn("analytics refresh skipped", "err", err)
			return
		}
	}
	s.refresher.Refresh(t.Graph.Settings().Matrix, doc)
}
