// Package app defines the narrow interface that the harness needs from an application under test,
// and the pieces used to create it: the bootstrap descriptor (Settings), the Registry of
// application factories and bridges, and the Handle that owns the single live instance.
//
// Frameworks are adapted to this package from the outside. See package muxapp for an adapter
// around a gorilla/mux router.
package app
