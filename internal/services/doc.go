// Package services implements the application layer between the transports
// (HTTP handlers and CLI commands) and the domain packages.
//
// IndexService loads sub-index histories, runs the VSTOXX calculator, writes
// reports and persists results. HealthService reports liveness and the
// readiness of the data directory and the optional Postgres store.
//
// Services take their collaborators and a *slog.Logger in the constructor and
// propagate the request context to every blocking call.
package services
