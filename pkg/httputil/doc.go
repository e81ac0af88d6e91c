// Package httputil provides retry helpers for backend HTTP calls.
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// wrapped in [RetryableError]; any other error ends it at once:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Only idempotent calls should be wrapped. Prediction requests are not
// retried: a new edit supersedes a failed prediction anyway.
package httputil
