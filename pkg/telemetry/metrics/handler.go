package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry in the Prometheus text or
// OpenMetrics format. Scrapes of the handler are themselves counted in
// promhttp_metric_handler_requests_total.
func (c *Collector) Handler() http.Handler {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry:          c.registry,
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
	return promhttp.InstrumentMetricHandler(c.registry, h)
}
