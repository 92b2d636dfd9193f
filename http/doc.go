// Package http provides the HTTP API for lockbox.
//
// Every route under /api requires a bearer token. The token is resolved to a
// caller id by an Authenticator and handed to the service, which enforces
// ownership. Two authenticators are provided: JWTAuthenticator validates RS256
// tokens against a JWKS endpoint, and TokenAuthenticator maps static API
// tokens to user ids.
//
// # Routes
//
//	POST   /api/upload          multipart form, field "file"
//	GET    /api/download?key=   streams the blob with Content-Disposition
//	GET    /api/files           the caller's records
//	GET    /api/search?q=       the caller's records whose name contains q
//	DELETE /api/files/{id}      also served as /api/delete/{id}
//	GET    /healthz             unauthenticated
//	GET    /metrics             unauthenticated, Prometheus format
//
// # Usage
//
//	tokens := keybackend.NewMapTokenStore(map[string]string{"secret": "u1"})
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Authenticator: http.NewTokenAuthenticator(tokens),
//	    MaxUploadSize: 100 << 20,
//	}, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// # Errors
//
// Errors are JSON bodies of the form {"error": code, "message": text}. A file
// that does not exist and a file owned by someone else produce the same 404
// response.
package http
