// internal/bootstrap/providers.go
//
// Built-in service providers.  Bootstrap resources name them under
// `services:`; see internal/provider.
//
//	logger    the boot_id-scoped *zap.SugaredLogger
//	loader    a fresh *resource.Loader
//	metrics   the promhttp handler for the default registry
//	database  *sqlx.DB from the `database` config subtree
//	vault     *vault.Client; resolves vault: references in the current config
//	geoip     *requestinfo.GeoDB from `geoip.db_path`
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/adeptboot/internal/database"
	"github.com/yanizio/adeptboot/internal/provider"
	"github.com/yanizio/adeptboot/internal/requestinfo"
	"github.com/yanizio/adeptboot/internal/resource"
	"github.com/yanizio/adeptboot/internal/vault"
)

// KeyGeoIPPath names the GeoLite2-City database for the geoip provider.
const KeyGeoIPPath = "geoip.db_path"

// GeoIPService is the container name the web handler reads the GeoIP
// locator from.
const GeoIPService = "geoip"

// KeyVaultTTL caches resolved secrets for this many seconds.
const KeyVaultTTL = "vault.cache_ttl_s"

// connectTimeout bounds the database provider's ping loop.  Handles opened
// here are released with the container (see lifecycle.go).
const connectTimeout = 30 * time.Second

func init() {
	provider.Register("logger", provideLogger)
	provider.Register("loader", provideLoader)
	provider.Register("metrics", provideMetrics)
	provider.Register("database", provideDatabase)
	provider.Register("vault", provideVault)
	provider.Register(GeoIPService, provideGeoIP)
}

func bootLogger(b resource.Bindings) *zap.SugaredLogger {
	if o, ok := b.Bootstrap.(*Orchestrator); ok {
		return o.log
	}
	return zap.S()
}

// serviceContext and onRelease tie a provider's handles to the current
// container.
func serviceContext(b resource.Bindings) context.Context {
	if o, ok := b.Bootstrap.(*Orchestrator); ok {
		return o.ServiceContext()
	}
	return context.Background()
}

func onRelease(b resource.Bindings, fn func() error) {
	if o, ok := b.Bootstrap.(*Orchestrator); ok {
		o.OnRelease(fn)
	}
}

func provideLogger(b resource.Bindings) (any, error) { return bootLogger(b), nil }

func provideLoader(b resource.Bindings) (any, error) {
	if b.Loader == nil {
		return resource.NewLoader("", bootLogger(b)), nil
	}
	return b.Loader.Fresh(), nil
}

func provideMetrics(resource.Bindings) (any, error) { return promhttp.Handler(), nil }

func provideDatabase(b resource.Bindings) (any, error) {
	ctx, cancel := context.WithTimeout(serviceContext(b), connectTimeout)
	defer cancel()
	db, err := database.FromConfig(ctx, b.Config)
	if err != nil {
		return nil, err
	}
	onRelease(b, db.Close)
	bootLogger(b).Infow("database online", "driver", db.DriverName())
	return db, nil
}

func provideVault(b resource.Bindings) (any, error) {
	if b.Config == nil {
		return nil, errors.New("vault: no config bound")
	}
	// The renewal loop stops with the service context.
	ctx := serviceContext(b)
	cli, err := vault.New(ctx, bootLogger(b))
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(b.Config.Int(KeyVaultTTL)) * time.Second
	if err := vault.ResolveRefs(ctx, b.Config, cli, ttl); err != nil {
		return nil, err
	}
	return cli, nil
}

func provideGeoIP(b resource.Bindings) (any, error) {
	if b.Config == nil || b.Config.String(KeyGeoIPPath) == "" {
		return nil, fmt.Errorf("geoip: %s not configured", KeyGeoIPPath)
	}
	geo, err := requestinfo.OpenGeo(b.Config.String(KeyGeoIPPath))
	if err != nil {
		return nil, err
	}
	onRelease(b, geo.Close)
	return geo, nil
}
