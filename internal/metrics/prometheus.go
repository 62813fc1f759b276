package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records into its own registry.
type Prometheus struct {
	registry       *prom.Registry
	compileTotal   *prom.CounterVec
	compileSeconds *prom.HistogramVec
	cliques        prom.Histogram
	propTotal      *prom.CounterVec
	propSeconds    *prom.HistogramVec
	verdicts       *prom.CounterVec
	cache          *prom.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prom.NewRegistry(),
		compileTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "aptnet_compile_total",
			Help: "Total number of network compilations",
		}, []string{"success"}),
		compileSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "aptnet_compile_seconds",
			Help:    "Network compilation duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"success"}),
		cliques: prom.NewHistogram(prom.HistogramOpts{
			Name:    "aptnet_compile_cliques",
			Help:    "Number of cliques in compiled junction trees",
			Buckets: prom.ExponentialBuckets(1, 2, 10),
		}),
		propTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "aptnet_propagation_total",
			Help: "Total number of evidence propagations",
		}, []string{"success"}),
		propSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "aptnet_propagation_seconds",
			Help:    "Propagation duration in seconds",
			Buckets: prom.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"success"}),
		verdicts: prom.NewCounterVec(prom.CounterOpts{
			Name: "aptnet_verdicts_total",
			Help: "Aptitude verdicts by outcome",
		}, []string{"verdict"}),
		cache: prom.NewCounterVec(prom.CounterOpts{
			Name: "aptnet_network_cache_lookups_total",
			Help: "Compiled network cache lookups",
		}, []string{"hit"}),
	}
	p.registry.MustRegister(p.compileTotal, p.compileSeconds, p.cliques, p.propTotal, p.propSeconds, p.verdicts, p.cache)
	return p
}

func (p *Prometheus) ObserveCompile(success bool, seconds float64, cliques int) {
	l := strconv.FormatBool(success)
	p.compileTotal.WithLabelValues(l).Inc()
	p.compileSeconds.WithLabelValues(l).Observe(seconds)
	if success {
		p.cliques.Observe(float64(cliques))
	}
}

func (p *Prometheus) ObservePropagation(success bool, seconds float64) {
	l := strconv.FormatBool(success)
	p.propTotal.WithLabelValues(l).Inc()
	p.propSeconds.WithLabelValues(l).Observe(seconds)
}

func (p *Prometheus) IncVerdict(verdict string) {
	p.verdicts.WithLabelValues(verdict).Inc()
}

func (p *Prometheus) IncCacheLookup(hit bool) {
	p.cache.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (p *Prometheus) Registry() *prom.Registry {
	return p.registry
}
