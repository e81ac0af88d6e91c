// Package pkg provides the core libraries of nextstep, a business-process
// graph editor whose previews come from a remote prediction backend.
//
// # Overview
//
// A process graph holds confirmed activities and, after every change, the
// next steps the backend proposes for them. The data flow is:
//
//	edit (add, connect, move, settings)
//	         ↓
//	    [graph] mutation, previews dropped
//	         ↓
//	    [predict] reconciler sends the document
//	         ↓
//	    backend proposals → previews merged into [graph]
//	         ↓
//	    [analytics] variants, coverage and fitness
//
// # Main Packages
//
// [graph] - The process graph: nodes on grid cells, edges, selection,
// previews, settings and the key allocator. All mutations are serialized and
// every change is published to subscribers.
//
// [predict] - Prediction requests and the reconciler that keeps at most one
// request in flight per graph and merges the latest proposals as previews.
//
// [workspace] - Tabs of graphs with a reconciler each, the clipboard, and
// saving through file, Redis, MongoDB or in-memory stores.
//
// [io] - The JSON graph document exchanged with the backend and saved to
// disk, plus Petri net and auto-position payloads.
//
// [analytics] - Variants, coverage metrics and fitness for the active
// matrix, refreshed in the background.
//
// [integrations] - The shared HTTP client with retries and a circuit
// breaker. [integrations/backend] speaks the backend's endpoints.
//
// [cache] - File, Redis and null caches for backend responses.
//
// [render/nodelink] - Graphviz rendering of graphs.
//
// [geom] and [palette] - Cell geometry and the preview colour palette.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/graph
// [predict]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/predict
// [workspace]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/workspace
// [io]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/io
// [analytics]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/analytics
// [integrations]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/integrations
// [integrations/backend]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/integrations/backend
// [cache]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/cache
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/render/nodelink
// [geom]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/geom
// [palette]: https://pkg.go.dev/github.com/matzehuels/nextstep/pkg/palette
package pkg
