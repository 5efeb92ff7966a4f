// modules/example/example.go
//
// Example module – one namespace ("Example") with an implementation for each
// runnable mode:
//
//	ExampleModule  Web   /example (HTML) and /api/example (JSON)
//	ExampleTask    Cli   `greet [name]` and `config`
//	ExampleSrv     Srv   RPC method "Greet"
//
// Each factory reads `example.greeting` from the merged config.
package example

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yanizio/adeptboot/internal/console"
	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/module"
	"github.com/yanizio/adeptboot/internal/requestinfo"
	"github.com/yanizio/adeptboot/internal/rpc"
	"github.com/yanizio/adeptboot/internal/store"
	"github.com/yanizio/adeptboot/internal/ua"
	"github.com/yanizio/adeptboot/internal/webapp"
)

// Namespace is the `application.ns` value served by this package.
const Namespace = "Example"

// ServiceName is the container key of the RPC service.
const ServiceName = "example"

const defaultGreeting = "Hello"

// compile-time assertions
var (
	_ webapp.Mounter       = (*Module)(nil)
	_ console.TaskProvider = (*Task)(nil)
	_ rpc.Invoker          = (*Srv)(nil)
)

func init() {
	module.Register(Namespace+"Module", func(c *di.Container) (module.Instance, error) {
		cfg, err := di.Lookup[*store.Store](c, di.Config)
		if err != nil {
			return nil, err
		}
		return &Module{cfg: cfg}, nil
	})
	module.Register(Namespace+"Task", func(c *di.Container) (module.Instance, error) {
		cfg, err := di.Lookup[*store.Store](c, di.Config)
		if err != nil {
			return nil, err
		}
		return &Task{cfg: cfg}, nil
	})
	module.Register(Namespace+"Srv", func(c *di.Container) (module.Instance, error) {
		cfg, err := di.Lookup[*store.Store](c, di.Config)
		if err != nil {
			return nil, err
		}
		s := &Srv{greeting: greeting(cfg)}
		c.Set(ServiceName, s)
		return s, nil
	})
}

func greeting(cfg *store.Store) string {
	if g := cfg.String("example.greeting"); g != "" {
		return g
	}
	return defaultGreeting
}

/*──────────────────────────── Web ────────────────────────────────────────*/

// Module serves the example pages.
type Module struct {
	cfg *store.Store
}

var page = template.Must(template.New("example").Parse(`<!doctype html>
<html>
<head><title>Example – Request Info</title></head>
<body>
  <h1>{{.Greeting}}</h1>
  <ul>
    <li><strong>IP:</strong> {{.IP}}</li>
    <li><strong>Country:</strong> {{.Country}}</li>
    <li><strong>City:</strong> {{.City}}</li>
    <li><strong>Browser:</strong> {{.Browser}} ({{.Device}})</li>
    <li><strong>Path:</strong> {{.Path}}</li>
  </ul>
</body>
</html>`))

// Routes implements webapp.Mounter.
func (m *Module) Routes() chi.Router {
	r := chi.NewRouter()

	// HTML page
	r.Get("/example", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, m.info(r)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// JSON endpoint
	r.Get("/api/example", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.info(r)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return r
}

func (m *Module) info(r *http.Request) map[string]string {
	out := map[string]string{
		"Greeting": greeting(m.cfg),
		"Path":     r.URL.Path,
	}
	ri := requestinfo.FromContext(r.Context())
	if ri == nil {
		out["IP"] = requestinfo.ClientIP(r).String()
		out["Browser"] = ua.Parse(r.UserAgent()).Browser
		return out
	}
	out["IP"] = ri.Geo.IP.String()
	out["Country"] = ri.Geo.CountryISO
	out["City"] = ri.Geo.City
	out["Browser"] = ri.UA.Browser
	out["Device"] = ri.UA.Device
	return out
}

/*──────────────────────────── Cli ────────────────────────────────────────*/

// Task exposes the example commands.
type Task struct {
	cfg *store.Store
}

// Tasks implements console.TaskProvider.
func (t *Task) Tasks() []*cobra.Command {
	greet := &cobra.Command{
		Use:   "greet [name]",
		Short: "Print the configured greeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "world"
			if len(args) == 1 {
				name = args[0]
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s, %s\n", greeting(t.cfg), name)
			return err
		},
	}
	dump := &cobra.Command{
		Use:   "config",
		Short: "List merged config keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(t.cfg.Keys(), "\n"))
			return err
		},
	}
	return []*cobra.Command{greet, dump}
}

/*──────────────────────────── Srv ────────────────────────────────────────*/

// Srv answers RPC calls.
type Srv struct {
	greeting string
}

// GreetRequest is the input of Greet.
type GreetRequest struct {
	Name string `json:"name"`
}

// GreetReply is the output of Greet.
type GreetReply struct {
	Message string `json:"message"`
}

// Invoke implements rpc.Invoker.
func (s *Srv) Invoke(_ context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "Greet":
		var in GreetRequest
		if len(params) > 0 {
			if err := json.Unmarshal(params, &in); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "params: %v", err)
			}
		}
		if in.Name == "" {
			in.Name = "world"
		}
		return GreetReply{Message: s.greeting + ", " + in.Name}, nil
	default:
		return nil, status.Errorf(codes.Unimplemented, "method %q not found", method)
	}
}
