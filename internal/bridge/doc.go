// doc.go - Package documentation for the extension bridge client.

// Package bridge talks to the browser extension bridge over HTTP JSON-RPC.
//
// The bridge exposes an MCP-style endpoint; gridmat only uses the interact
// tool's execute_js action to evaluate grid snippets in the page's main
// world. Client satisfies script.Executor.
package bridge
