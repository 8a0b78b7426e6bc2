// Package app wires the VSTOXX service together.
//
// NewApplication builds the service container (loader, calculator, report
// exporter and the optional Postgres store), the chi router with its
// middleware chain, and the HTTP server. Run serves until SIGINT or SIGTERM
// and then drains in-flight requests before closing the store and flushing
// telemetry.
//
// The CLI reuses NewServiceContainer for one-off computations without
// starting the server.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
