// Package rest defines the typed request/processor model the dispatch
// core routes against: HTTP methods and statuses, redirect behaviors,
// the Processor and Resource capability interfaces, and the registry
// that resolves a request path to a resource.
package rest
