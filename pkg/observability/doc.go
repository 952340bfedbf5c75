/*
Package observability exposes engine execution as Prometheus metrics.

Metrics plugs into the engine through lifecycle hooks: node durations become
a histogram, node failures a counter. The collector registers against any
prometheus.Registerer, so hosts can use the default registry or their own.
*/
package observability
