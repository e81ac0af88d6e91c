// Package backend is the client for the process-mining backend API.
//
// The backend holds a per-session prediction state keyed by a cookie. A
// [Client] must call [Client.StartSession] first; every other call except
// [Client.TestConnection] fails with a SESSION_NOT_FOUND coded error until
// then.
//
//	c, err := backend.NewClient("http://localhost:5000/api")
//	_, err = c.StartSession(ctx, "Simple IOR Choice", nil)
//	resp, err := c.Predict(ctx, predict.Request{Graph: doc, Matrix: "Simple IOR Choice"})
//
// [Client] implements [predict.Predictor], so it plugs straight into a
// [predict.Reconciler].
//
// Several endpoints answer with a JSON document encoded as a string inside
// the outer object; the typed methods ([Client.Variants], [Client.Metrics],
// [Client.Fitness]) decode both forms.
package backend
