// internal/webapp/server.go
//
// Live HTTP server for cmd/web.  Timeouts come from config.HTTP so they
// can be tuned with ADEPT_HTTP__* variables:
//
//   • read_header_timeout  – slow-loris guard on headers
//   • read_timeout         – whole request, body included
//   • write_timeout        – cap total response time
//   • idle_timeout         – close idle keep-alives

package webapp

import (
	"net/http"

	"github.com/yanizio/adeptboot/internal/config"
)

// NewServer returns an *http.Server for handler configured from s.
func NewServer(s config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              s.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}
