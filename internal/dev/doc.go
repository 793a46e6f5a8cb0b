// Package dev provides live reload for the development server.
//
// A Reloader watches the static bundle directory with fsnotify. When files
// change it re-reads the bundle names, hands them to the SSR host, and
// notifies connected browsers over a WebSocket.
//
//	host := ssr.NewHost(ssr.WithDocumentHook(dev.InjectScript))
//	rl, err := dev.NewReloader("dist", host, logger)
//	router.Handle(dev.ReloadPath, rl.Handler())
//	go rl.Run(ctx)
//
// # Reload Protocol
//
// The browser connects to /_shadow/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "css", "file": "..."}    // Reloads stylesheets only
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
package dev
