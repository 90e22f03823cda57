/*
Package observability turns engine lifecycle hooks into logs and metrics.

Metrics exposes Prometheus collectors fed by domain.Hooks; LogHooks writes
one structured record per event; Combine fans a single event out to several
hook sets.
*/
package observability
