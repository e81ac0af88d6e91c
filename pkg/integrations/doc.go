// Package integrations provides the HTTP client for the process-mining
// backend.
//
// # Overview
//
// The backend is a JSON-over-HTTP service that holds the uploaded event
// logs (matrices), predicts next steps for a graph, and computes variants,
// metrics and fitness. [Client] is the shared transport; the [backend]
// subpackage maps each endpoint onto typed calls.
//
// # Client Behaviour
//
//	client, err := integrations.NewClient("http://localhost:5000")
//	var names []string
//	err = client.GetJSON(ctx, "getMatrices", &names)
//
// The client handles:
//   - retries with backoff for GET requests on transient failures
//   - a circuit breaker that opens after repeated network or 5xx failures
//   - a cookie jar, so the backend session survives between calls
//   - mapping of failures onto [errors.Code] values
//
// POST requests are never retried; a prediction that fails is reported and
// the next edit starts a fresh one.
//
// [backend]: github.com/matzehuels/nextstep/pkg/integrations/backend
// [errors.Code]: github.com/matzehuels/nextstep/pkg/errors.Code
package integrations
