// Package workspace manages a set of open graphs ("tabs").
//
// Each tab owns a [graph.Graph] and the [predict.Reconciler] that keeps its
// previews current. The [Workspace] adds what spans tabs: which tab is
// active, a clipboard for moving nodes between tabs, opening and saving
// graphs through a [Store], Petri net import, and falling back to the
// default matrix when a matrix is removed.
//
// Stores:
//   - [MemoryStore]: in-process, the default
//   - [FileStore]: one JSON file per graph, for the CLI
//   - [RedisStore]: shared between server instances
//   - [MongoStore]: durable server storage
package workspace
