// Package app wires the Extra Icons license coordinator together and owns its
// lifecycle.
//
// New builds every component from a config.Config without starting anything:
// telemetry, the refresh notifier, plugin identity resolution, the verifier
// chain, icon settings and models, the license scheduler, the WebSocket hub
// and, when enabled, the diagnostics HTTP server.
//
// Start arms the scheduler and the settings watcher and begins serving. Stop
// is idempotent and shuts down in reverse order within the configured
// shutdown timeout.
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
package app
