// Package httputil provides HTTP utilities shared by the SSO handlers and the
// demo server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteText(w, http.StatusUnauthorized, "Invalid")
//	httputil.WriteUnauthorized(w, "authentication required")
//
// # Request Parsing
//
//	var req refreshRequest
//	if err := httputil.ParseJSON(r, &req); err != nil {
//		...
//	}
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)
package httputil
