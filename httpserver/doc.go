// Package httpserver provides the HTTP API for the escrow service.
//
// The server exposes the escrow protocol endpoints under /api and the usual
// operational endpoints (/livez, /readyz, /drain, /undrain, optional pprof
// under /debug). Prometheus metrics are served from a separate listener.
//
// API endpoints:
//
//	POST /api/users                              register a participant
//	GET  /api/users                              list participants
//	POST /api/messages                           escrow a payload
//	GET  /api/users/{user_id}/pending            collect pending deliverables
//	POST /api/messages/{message_id}/acknowledge  return a key share
package httpserver
