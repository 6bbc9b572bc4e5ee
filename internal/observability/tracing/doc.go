// Package tracing provides OpenTelemetry tracing integration.
//
// Middleware wraps every HTTP request in a server span, and the orchestrator
// starts a child span around each fan-out call so one scroll request's
// adapter dispatch shows up as a single trace.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("/", someHandler)
//	handler := tracing.Middleware(mux)
//	http.ListenAndServe(":8080", handler)
package tracing
