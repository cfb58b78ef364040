// Package muxapp adapts a gorilla/mux router into an app.Application, so that any mux-based web
// application can run inside the harness. Host-matching routes become the routing rules used for
// recognizing the application's own domains.
package muxapp
