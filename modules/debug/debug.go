// modules/debug/debug.go
//
// Diagnostic endpoint mounted in debug environments.  It echoes the
// resolved environment, the module descriptor, the merged config keys, the
// registered services, and the caller's parsed request info (IP, GeoIP,
// and user-agent).
package debug

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/adeptboot/internal/requestinfo"
	"github.com/yanizio/adeptboot/internal/ua"
)

// Path is where the bootstrap mounts Handler.
const Path = "/_debug/bootstrap"

// Snapshot is the state exposed by the endpoint.
type Snapshot struct {
	BootID     string   `json:"boot_id"`
	Env        string   `json:"env"`
	Debug      bool     `json:"debug"`
	Mode       string   `json:"mode"`
	ClassName  string   `json:"class_name"`
	ClassPath  string   `json:"class_path"`
	ConfigKeys []string `json:"config_keys"`
	Services   []string `json:"services"`
}

// Source supplies a fresh Snapshot per request.
type Source interface {
	Snapshot() Snapshot
}

// Handler writes a JSON blob built from src.
func Handler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ri := requestinfo.FromContext(r.Context())
		if ri == nil {
			ri = &requestinfo.RequestInfo{
				UA:   ua.Parse(r.UserAgent()),
				Geo:  requestinfo.Geo{IP: requestinfo.ClientIP(r)},
				Path: r.URL.Path,
			}
		}
		out := map[string]any{
			"bootstrap": src.Snapshot(),
			"request":   ri,
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
}
