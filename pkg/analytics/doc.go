// Package analytics keeps the variant, coverage and fitness figures of the
// graph most recently sent to the backend up to date.
//
// A [Refresher] runs two single-flight loops: one for variants and
// coverage metrics, one for fitness, which is far slower on large event
// logs. A refresh requested while a loop is busy is deferred, so after any
// burst of edits each loop runs at most once more and its result reflects
// the latest graph.
package analytics
