// Package metrics holds Prometheus instruments used across the bootstrap.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConfigLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_config_loads_total",
			Help: "Configuration files loaded, by layer (global, module, dependency).",
		}, []string{"layer"})

	ModuleResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_module_resolutions_total",
			Help: "Module descriptors resolved, by mode.",
		}, []string{"mode"})

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_dispatch_total",
			Help: "Mode handler invocations, by mode.",
		}, []string{"mode"})

	WebFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adept_web_fallback_total",
			Help: "Web dispatches retried on the default route.",
		})

	BootstrapErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_bootstrap_errors_total",
			Help: "Bootstrap failures, by kind.",
		}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadsTotal,
		ModuleResolutionsTotal,
		DispatchTotal,
		WebFallbackTotal,
		BootstrapErrorsTotal,
	)
}
