// Package router turns one parsed HTTP request into a typed call
// against a registered processor and commits the result as a reply.
//
// A single Dispatcher instance serves every in-flight exchange across
// all connections. It holds no per-request state: everything request
// scoped lives in locals of the Dispatch call, so concurrent dispatch
// needs no synchronization.
package router
