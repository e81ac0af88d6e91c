// Package predict fetches preview proposals for a graph and merges them as
// preview nodes.
//
// A [Reconciler] watches one graph. Each confirmed change (node or edge
// added or removed, preview promoted, settings changed, graph imported)
// starts a cycle:
//
//  1. evict every preview node;
//  2. serialize the confirmed graph;
//  3. call the [Predictor] with a per-call timeout;
//  4. merge the proposals as preview nodes.
//
// A failed or malformed prediction ends the cycle with no previews and is
// reported in the [Outcome]; it is never retried automatically. The next
// edit starts a fresh cycle.
//
// Cycles never overlap. A [Runner] guards them: a trigger during a cycle
// sets a pending flag and exactly one more cycle runs afterwards, so the
// last edit is always reconciled. The analytics refresher uses the same
// runner.
//
//	r := predict.NewReconciler(g, backendPredictor, predict.WithLogger(logger))
//	defer r.Close()
//	r.Subscribe(func(o predict.Outcome) {
//	    if o.Err != nil {
//	        logger.Warn("no previews", "err", o.Err)
//	    }
//	})
//	r.Trigger()
package predict
