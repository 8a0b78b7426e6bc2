// Package http implements the HTTP handlers of the VSTOXX service.
//
// Handlers stay thin: they parse and validate the request, call a service
// and render the result. Errors are passed to the shared ErrorHandler which
// answers with RFC 7807 problem details.
//
// # Routes
//
//	POST /api/v1/vstoxx/compute      JSON rows or a CSV history
//	GET  /api/v1/vstoxx/history      stored rows for ?from=&to=
//	GET  /api/v1/settlements         ?date= or ?from=&to=
//	GET  /api/v1/settlements/{date}  settlement pair of one date
//	GET  /api/health                 health, ready, live
//	GET  /api/version                build information
//
// Compute and history answer with JSON by default. An Accept header of
// text/csv or the XLSX media type returns the rows as a report file instead.
package http
