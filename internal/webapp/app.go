// internal/webapp/app.go
//
// Web application collaborator.
//
// Context
// -------
// The Web-mode handler needs something that turns a request target into a
// response and reports when no route matched.  Application wraps one chi
// router for that purpose.  Module instances attach their routes either by
// implementing Mounter or by fetching the Application from the container
// (di.Application) and calling Mount.
//
// Handle dispatches a request into an in-memory response.  When chi reaches
// its NotFound handler, Handle returns ErrRouteNotFound instead of a 404
// page, so the caller can decide whether to retry on the default route.
//
// Notes
// -----
// • The header policy (security.go) and request-info enrichment are
//   installed on the root router.  A GeoIP Locator may be attached later with SetLocator.
// • Oxford commas, two spaces after periods.
package webapp

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/adeptboot/internal/requestinfo"
)

// ErrRouteNotFound is returned by Handle when no route matched.
var ErrRouteNotFound = errors.New("route not found")

// Mounter is implemented by module instances that expose HTTP routes.
type Mounter interface {
	Routes() chi.Router
}

// Response is a fully buffered reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Application is a chi-backed request dispatcher.
type Application struct {
	mux           *chi.Mux
	defaultModule string
	headers       Headers
	locator       requestinfo.Locator
}

// Option configures an Application.
type Option func(*Application)

// WithHeaders merges h over DefaultHeaders.
func WithHeaders(h Headers) Option {
	return func(a *Application) { a.headers = a.headers.With(h) }
}

// New returns an Application whose default route prefix is defaultModule.
func New(defaultModule string, opts ...Option) *Application {
	a := &Application{
		mux:           chi.NewRouter(),
		defaultModule: defaultModule,
		headers:       DefaultHeaders.With(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mux.Use(middleware.RequestID)
	a.mux.Use(Security(a.headers))
	a.mux.Use(requestinfo.Enrich(func() requestinfo.Locator { return a.locator }))
	a.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*recorder); ok {
			rec.unrouted = true
		}
		http.NotFound(w, r)
	})
	return a
}

// Use appends middleware to the root router.  chi requires this before the
// first route is registered.
func (a *Application) Use(mw ...func(http.Handler) http.Handler) { a.mux.Use(mw...) }

// SetLocator attaches a GeoIP locator.  Call it before serving traffic.
func (a *Application) SetLocator(l requestinfo.Locator) { a.locator = l }

// Router exposes the root router.
func (a *Application) Router() chi.Router { return a.mux }

// Mount attaches h under pattern.
func (a *Application) Mount(pattern string, h http.Handler) { a.mux.Mount(pattern, h) }

// MountModule mounts m's routes at "/".
func (a *Application) MountModule(m Mounter) { a.mux.Mount("/", m.Routes()) }

// DefaultModule is the prefix used for default-route retries.
func (a *Application) DefaultModule() string { return a.defaultModule }

// DefaultRoute returns "/" + default module + the original path.
func (a *Application) DefaultRoute(target string) string {
	if target == "" {
		target = "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if a.defaultModule == "" {
		return target
	}
	return "/" + strings.Trim(a.defaultModule, "/") + target
}

// Handle dispatches r and buffers the reply.
func (a *Application) Handle(r *http.Request) (*Response, error) {
	rec := newRecorder()
	a.mux.ServeHTTP(rec, r)
	if rec.unrouted {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, r.Method, r.URL.RequestURI())
	}
	return rec.response(), nil
}

// ServeHTTP serves r directly, without the buffering of Handle.
func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

/*──────────────────────────── recorder ───────────────────────────────────*/

// recorder is a minimal in-memory http.ResponseWriter.
type recorder struct {
	header   http.Header
	status   int
	body     bytes.Buffer
	unrouted bool
}

func newRecorder() *recorder { return &recorder{header: make(http.Header)} }

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(p)
}

func (r *recorder) response() *Response {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Status: status, Header: r.header.Clone(), Body: r.body.Bytes()}
}

// WriteTo copies resp onto w.
func (resp *Response) WriteTo(w http.ResponseWriter) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
