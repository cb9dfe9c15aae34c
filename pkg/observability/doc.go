/*
Package observability provides tools for monitoring the Canopy editor and its storage.

It bridges editor lifecycle hooks to Prometheus counters and structured logs,
and instruments document stores with latency histograms.
*/
package observability
