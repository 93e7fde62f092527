package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/livepage/errors"
)

// BodySizeLimit caps request bodies at limit bytes. Reads past the limit
// fail with *http.MaxBytesError. A limit of 0 or less disables the cap.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, apperrors.PayloadTooLarge(limit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
