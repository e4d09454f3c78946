// Package ui implements an interactive terminal results browser using
// bubbletea's Elm architecture.
//
// The [Model] wraps a bubbles list of enriched songs for one day. Each entry
// shows the track, artist, and the reason it was suggested; enter/o opens the
// selected track's catalog page in the default browser.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, q) with contextual
// help rendered by the list component.
package ui
