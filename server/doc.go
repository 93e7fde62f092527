// Package server is the livepage HTTP surface: a Gin engine served over
// HTTP/1.1 and h2c behind the middleware in server/middleware.
//
// Every path outside /.livepage/ is a page:
//
//	GET  /path          live page shell, or static bytes
//	GET  /path?updates  event stream for a live page
//	POST /path?title=T  set body (request body) and title
//	POST /path?static   store the body with its Content-Type
//
// Service endpoints live under /.livepage/ (health, version).
package server
