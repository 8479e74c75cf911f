// Package web serves a prepared session as an HTML form.
//
// Media returned by a call is exposed under /artifacts/{id}. The server owns
// those transient files: they are released on DELETE, when the retention
// limit evicts them, or on Shutdown.
package web
