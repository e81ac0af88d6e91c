package workspace

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nextstep/pkg/analytics"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/predict"
)

const (
	// DefaultTabName names tabs created without a name.
	DefaultTabName = "New"

	// PetriTabPrefix prefixes the name of a tab holding an imported Petri
	// net.
	PetriTabPrefix = "PetriNet "
)

// Tab is one open graph with its reconciler.
type Tab struct {
	id         string
	name       string
	Graph      *graph.Graph
	Reconciler *predict.Reconciler
	unsub      func()
}

// ID returns the tab id.
func (t *Tab) ID() string { return t.id }

func (t *Tab) close() {
	t.unsub()
	t.Reconciler.Close()
}

// TabInfo describes a tab.
type TabInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Matrix   string `json:"matrix"`
	Nodes    int    `json:"nodes"`
	Previews int    `json:"previews"`
}

// Workspace is a set of open graphs sharing one predictor, one analytics
// refresher and one clipboard. Exactly one tab is active at a time and
// there is always at least one tab.
type Workspace struct {
	predictor predict.Predictor
	refresher *analytics.Refresher
	store     Store
	logger    *log.Logger
	timeout   time.Duration
	settings  graph.Settings

	mu        sync.Mutex
	tabs      []*Tab
	active    string
	clipboard []byte
}

// Option configures a [Workspace].
type Option func(*Workspace)

// WithLogger sets the logger used by the workspace and its reconcilers.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithRefresher refreshes analytics after each successful prediction of
// the active tab.
func WithRefresher(r *analytics.Refresher) Option {
	return func(w *Workspace) { w.refresher = r }
}

// WithStore sets where Save and Open persist graphs. The default keeps
// them in memory.
func WithStore(s Store) Option {
	return func(w *Workspace) { w.store = s }
}

// WithTimeout bounds each predictor call of every tab.
func WithTimeout(d time.Duration) Option {
	return func(w *Workspace) { w.timeout = d }
}

// WithSettings sets the settings of new tabs.
func WithSettings(s graph.Settings) Option {
	return func(w *Workspace) { w.settings = s }
}

// New creates a workspace with one empty, active tab.
func New(p predict.Predictor, opts ...Option) *Workspace {
	w := &Workspace{
		predictor: p,
		store:     NewMemoryStore(),
		logger:    log.New(io.Discard),
		timeout:   predict.DefaultTimeout,
		settings:  graph.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.NewTab("")
	return w
}

// Store returns the workspace's store.
func (w *Workspace) Store() Store { return w.store }

// NewTab opens an empty graph in a new tab and activates it.
func (w *Workspace) NewTab(name string) *Tab {
	t := w.newTab("", name, graph.New(graph.WithSettings(w.settings)))
	w.add(t)
	return t
}

// newTab wraps g in a tab. An empty id gets a fresh one.
func (w *Workspace) newTab(id, name string, g *graph.Graph) *Tab {
	if strings.TrimSpace(name) == "" {
		name = DefaultTabName
	}
	if id == "" {
		id = uuid.NewString()
	}
	t := &Tab{
		id:    id,
		name:  name,
		Graph: g,
		Reconciler: predict.NewReconciler(g, w.predictor,
			predict.WithLogger(w.logger.With("tab", name)),
			predict.WithTimeout(w.timeout)),
	}
	t.unsub = t.Reconciler.Subscribe(func(out predict.Outcome) { w.onOutcome(t, out) })
	return t
}

// add appends t and makes it active.
func (w *Workspace) add(t *Tab) {
	w.mu.Lock()
	w.tabs = append(w.tabs, t)
	w.active = t.id
	w.mu.Unlock()
	w.logger.Debug("tab opened", "id", t.id, "name", t.name)
	t.Reconciler.Trigger()
}

func (w *Workspace) onOutcome(t *Tab, out predict.Outcome) {
	if w.refresher == nil || out.Err != nil || out.Sent == nil {
		return
	}
	w.mu.Lock()
	active := w.active == t.id
	w.mu.Unlock()
	if active {
		w.refresher.Refresh(out.Matrix, out.Sent)
	}
}

// Tabs lists the open tabs in order.
func (w *Workspace) Tabs() []TabInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]TabInfo, len(w.tabs))
	for i, t := range w.tabs {
		out[i] = TabInfo{
			ID:       t.id,
			Name:     t.name,
			Active:   t.id == w.active,
			Matrix:   t.Graph.Settings().Matrix,
			Nodes:    t.Graph.NodeCount(),
			Previews: len(t.Graph.Previews()),
		}
	}
	return out
}

// Tab returns the tab with id, or a NOT_FOUND coded error.
func (w *Workspace) Tab(id string) (*Tab, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.index(id); i >= 0 {
		return w.tabs[i], nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no tab %q", id)
}

// Name returns the name of tab id.
func (w *Workspace) Name(id string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.index(id); i >= 0 {
		return w.tabs[i].name, nil
	}
	return "", errors.New(errors.ErrCodeNotFound, "no tab %q", id)
}

// Active returns the active tab, or nil after Close.
func (w *Workspace) Active() *Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.index(w.active); i >= 0 {
		return w.tabs[i]
	}
	return nil
}

func (w *Workspace) index(id string) int {
	return slices.IndexFunc(w.tabs, func(t *Tab) bool { return t.id == id })
}

// Activate makes tab id active and reconciles it, which in turn refreshes
// the analytics for it.
func (w *Workspace) Activate(id string) error {
	t, err := w.Tab(id)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.active = id
	w.mu.Unlock()
	t.Reconciler.Trigger()
	return nil
}

// RenameTab renames tab id.
func (w *Workspace) RenameTab(id, name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.index(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "no tab %q", id)
	}
	w.tabs[i].name = name
	return nil
}

// CloseTab closes tab id. Closing the active tab activates its left
// neighbour; closing the last tab opens a fresh one.
func (w *Workspace) CloseTab(id string) error {
	w.mu.Lock()
	i := w.index(id)
	if i < 0 {
		w.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "no tab %q", id)
	}
	t := w.tabs[i]
	w.tabs = slices.Delete(w.tabs, i, i+1)
	var next *Tab
	if len(w.tabs) > 0 && w.active == id {
		next = w.tabs[max(i-1, 0)]
		w.active = next.id
	}
	empty := len(w.tabs) == 0
	w.mu.Unlock()

	t.close()
	w.logger.Debug("tab closed", "id", id)
	switch {
	case empty:
		w.NewTab("")
	case next != nil:
		next.Reconciler.Trigger()
	}
	return nil
}

// Copy puts the selected nodes of tab id, or its whole confirmed graph if
// nothing is selected, on the clipboard.
func (w *Workspace) Copy(id string) error {
	t, err := w.Tab(id)
	if err != nil {
		return err
	}
	data, err := pkgio.MarshalSelection(t.Graph)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "copy")
	}
	w.mu.Lock()
	w.clipboard = data
	w.mu.Unlock()
	return nil
}

// Clipboard returns the clipboard content, or nil if nothing was copied.
func (w *Workspace) Clipboard() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.clipboard)
}

// Paste imports the clipboard into tab id, shifted by (dx, dy) cells.
// Pasted nodes get fresh ids, so pasting into the source tab is safe.
func (w *Workspace) Paste(id string, dx, dy int) (graph.ImportResult, error) {
	t, err := w.Tab(id)
	if err != nil {
		return graph.ImportResult{}, err
	}
	data := w.Clipboard()
	if data == nil {
		return graph.ImportResult{}, errors.New(errors.ErrCodeInvalidInput, "clipboard is empty")
	}
	return pkgio.Unmarshal(data, t.Graph, pkgio.ReadOptions{OffsetX: dx, OffsetY: dy})
}

// OpenFile loads a graph file into a new tab named after the file, applying
// the file's settings, and activates it.
func (w *Workspace) OpenFile(path string) (*Tab, error) {
	g := graph.New(graph.WithoutRoot(), graph.WithSettings(w.settings))
	if _, err := pkgio.ImportJSON(path, g); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := w.newTab("", name, g)
	w.add(t)
	return t, nil
}

// ImportDocument loads a graph document into a new tab, applying the
// document's settings, and activates it.
func (w *Workspace) ImportDocument(name string, data []byte) (*Tab, error) {
	return w.importDocument("", name, data)
}

func (w *Workspace) importDocument(id, name string, data []byte) (*Tab, error) {
	g := graph.New(graph.WithoutRoot(), graph.WithSettings(w.settings))
	if _, err := pkgio.Unmarshal(data, g, pkgio.ReadOptions{ApplySettings: true}); err != nil {
		return nil, err
	}
	t := w.newTab(id, name, g)
	w.add(t)
	return t, nil
}

// ExportFile writes tab id to a graph file at path.
func (w *Workspace) ExportFile(id, path string) error {
	t, err := w.Tab(id)
	if err != nil {
		return err
	}
	return pkgio.ExportJSON(t.Graph, path)
}

// ImportPetriNet opens a Petri net in a new tab. The tab has no root and
// shows no previews.
func (w *Workspace) ImportPetriNet(name string, data []byte) (*Tab, error) {
	s := w.settings
	s.ShowPreview = false
	g := graph.New(graph.WithoutRoot(), graph.WithSettings(s))
	if _, err := pkgio.ReadPetriNet(data, g); err != nil {
		return nil, err
	}
	t := w.newTab("", PetriTabPrefix+name, g)
	w.add(t)
	return t, nil
}

// Save writes tab id to the store under the tab's id.
func (w *Workspace) Save(ctx context.Context, id string) (Summary, error) {
	t, err := w.Tab(id)
	if err != nil {
		return Summary{}, err
	}
	name, _ := w.Name(id)
	doc, err := pkgio.Marshal(t.Graph, pkgio.Options{KeepSelectedEdges: true})
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeInternal, err, "save %s", name)
	}
	rec := Record{ID: id, Name: name, Document: doc, SavedAt: time.Now().UTC()}
	if err := w.store.Save(ctx, rec); err != nil {
		return Summary{}, err
	}
	w.logger.Info("graph saved", "id", id, "name", name)
	return rec.summary(), nil
}

// SaveAll saves every open tab. It keeps going past failures and returns
// them joined.
func (w *Workspace) SaveAll(ctx context.Context) ([]Summary, error) {
	var (
		saved []Summary
		errs  []error
	)
	for _, info := range w.Tabs() {
		s, err := w.Save(ctx, info.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		saved = append(saved, s)
	}
	return saved, stderrors.Join(errs...)
}

// Open loads a saved graph into a new tab and activates it. The tab takes
// the store id, so saving it updates the same record. If the saved graph is
// already open in a tab, that tab is activated instead.
func (w *Workspace) Open(ctx context.Context, storeID string) (*Tab, error) {
	if t, err := w.Tab(storeID); err == nil {
		return t, w.Activate(storeID)
	}
	rec, err := w.store.Load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return w.importDocument(storeID, rec.Name, rec.Document)
}

// DropMatrix switches every tab predicting with matrix back to the default
// matrix, after matrix was removed from the backend. It returns the ids of
// the tabs changed.
func (w *Workspace) DropMatrix(matrix string) []string {
	if matrix == graph.DefaultMatrix {
		return nil
	}
	w.mu.Lock()
	tabs := slices.Clone(w.tabs)
	w.mu.Unlock()

	var changed []string
	for _, t := range tabs {
		if t.Graph.Settings().Matrix != matrix {
			continue
		}
		if err := t.Graph.SetMatrix(graph.DefaultMatrix); err != nil {
			w.logger.Warn("matrix fallback failed", "tab", t.id, "err", err)
			continue
		}
		changed = append(changed, t.id)
	}
	return changed
}

// Wait blocks until no tab has a reconciliation in flight.
func (w *Workspace) Wait() {
	w.mu.Lock()
	tabs := slices.Clone(w.tabs)
	w.mu.Unlock()
	for _, t := range tabs {
		t.Reconciler.Wait()
	}
	if w.refresher != nil {
		w.refresher.Wait()
	}
}

// Close stops every tab's reconciler. The store and refresher are left to
// the caller.
func (w *Workspace) Close() {
	w.mu.Lock()
	tabs := w.tabs
	w.tabs = nil
	w.mu.Unlock()
	for _, t := range tabs {
		t.close()
	}
}
