// Package http implements the diagnostics HTTP API of Extra Icons.
//
// Handlers are thin: they parse and validate input, call into the license
// scheduler, the icon provider, the settings store or the refresh notifier,
// and render the result with go-chi/render. Failures are turned into RFC 7807
// problem responses by internal/errors.
//
// # Routes
//
//	GET  /api/health          service health and license state
//	GET  /api/license         license gate status
//	POST /api/license/check   run one license check now
//	GET  /api/icons           list icon models, or look one up with ?file=
//	POST /api/icons/refresh   broadcast an icon refresh
//	GET  /api/settings        current icon settings
//	PUT  /api/settings        replace icon settings
//	GET  /metrics             Prometheus exposition
//	GET  /ws                  refresh event stream
package http
