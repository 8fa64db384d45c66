// Package middleware provides HTTP middleware for SSO authentication.
//
// AuthMiddleware resolves the local user behind the request token and stores
// it in the request context:
//
//	auth := middleware.NewAuthMiddleware(flow.Resolver(), false)
//	router.Handle("/me", auth.Handler(meHandler))
//
//	func meHandler(w http.ResponseWriter, r *http.Request) {
//		user, _ := middleware.GetUser[*User](r)
//		...
//	}
package middleware
