// Package io provides JSON import and export for process graphs.
//
// # JSON Format
//
// A graph document carries the confirmed nodes, the edges between them and
// the graph's prediction settings:
//
//	{
//	  "nodes": [
//	    {"id": "starting_with_key:0", "x": 1, "y": 3, "realX": 160, "realY": 360,
//	     "caption": "Start", "actualKey": "starting_with_key:0", "probability": 0,
//	     "color": "#FFD700", "comment": "", "support": 0}
//	  ],
//	  "edges": [["starting_with_key:0", "New1"]],
//	  "deletedKeys": ["New2"],
//	  "probability": 0.3,
//	  "support": 1,
//	  "auto": true,
//	  "matrix": "Simple IOR Choice",
//	  "root": "starting_with_key:0"
//	}
//
// Preview nodes are never written. By default edges touching a selected node
// are left out as well, which is what the prediction backend expects; file
// saves set [Options.KeepSelectedEdges].
//
// # Import
//
// Imports never reuse ids verbatim. Every incoming node gets a fresh id from
// the target graph's allocator, and edges are re-created through the
// resulting old-to-new table, so pasting into another graph or merging a file
// never collides. The whole document is validated before the target is
// touched: a corrupt document returns a coded INVALID_PAYLOAD error and the
// target stays unchanged. Edges with an endpoint missing from the document
// are skipped and reported in the result.
//
//	res, err := io.ReadJSON(f, g, io.ReadOptions{})
//	for _, e := range res.Dangling {
//	    logger.Warn("skipped edge", "from", e.From, "to", e.To)
//	}
//
// # Petri Nets
//
// [ReadPetriNet] imports {places, transitions, arcs}, optionally wrapped as
// {"net": "<json>"} the way the backend returns it. Places and transitions
// both become nodes, tagged with [graph.KindPlace] and [graph.KindTransition].
// A place and a transition may share an id; the import result keys them as
// "p:<id>" and "t:<id>".
//
// # Positions
//
// [ApplyPositions] decodes the backend's auto-layout answer,
// {"positions": "{\"id\": [x, y]}"}, and moves the named nodes.
package io
