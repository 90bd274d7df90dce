// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler should use these helpers instead of writing raw
// http.ResponseWriter calls so that JSON formatting and the error envelope
// ({"error", "code", "details"}) stay consistent across endpoints.
package httputil
