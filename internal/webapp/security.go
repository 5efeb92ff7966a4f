// internal/webapp/security.go
//
// Response-header policy.
//
// Every Application sets DefaultHeaders on each response before the route
// handler runs, so handlers may still overwrite them.  A module overrides
// or removes entries through its config:
//
//	http:
//	  headers:
//	    Content-Security-Policy: "default-src 'self' cdn.example.org"
//	    Strict-Transport-Security: ""      # empty value drops the header
//
// The bootstrap reads that subtree and passes it to New with WithHeaders.

package webapp

import "net/http"

// Headers maps canonical header names to values.  An empty value removes
// the header from the policy.
type Headers map[string]string

// DefaultHeaders is the baseline policy.
var DefaultHeaders = Headers{
	"Strict-Transport-Security": "max-age=63072000; includeSubDomains; preload",
	"Content-Security-Policy": "default-src 'self'; img-src 'self' data:; object-src 'none'; " +
		"base-uri 'self'; frame-ancestors 'none'",
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

// With returns a copy of h with override applied.
func (h Headers) With(override Headers) Headers {
	out := make(Headers, len(h)+len(override))
	for k, v := range h {
		out[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range override {
		k = http.CanonicalHeaderKey(k)
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Security returns middleware that applies h to every response.
func Security(h Headers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dst := w.Header()
			for k, v := range h {
				dst.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
