// doc.go - Package documentation for refresh.

// Package refresh consumes network events captured by the browser extension.
//
// Two consumers share one event stream: Watcher detects dataset refreshes
// (a successful reload of the component listing), and CredentialStore keeps
// the most recent bearer token and instance origin seen on Dataverse API
// calls. Handler accepts the extension's pushes over HTTP.
package refresh
