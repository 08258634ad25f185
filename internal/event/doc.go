// Package event is the synchronous message bus between the extension runtime
// and the navigation layer that consumes "open extension" requests.
//
// Topics are dot-separated strings. A subscription pattern matches a topic
// exactly, or by prefix when it ends in ".*":
//
//	extension.open      - open an extension's landing view
//	extension.open.id   - open a specific view id of an extension
//	extension.*         - every extension topic
//
// Handlers run in the publisher's goroutine in priority order. A panicking
// handler is recovered and reported as a *PanicError; the remaining handlers
// still run.
package event
