// Package httpapi exposes the knowledge base over HTTP/JSON.
//
// Routes are served by a chi router. Mutating routes require an
// "Authorization: Bearer <token>" header; the validated session is stored in
// the request context and read back with SessionFromContext. Service errors
// are mapped onto status codes by their common.Kind and rendered as
// {"error": "<message>"}.
package httpapi
