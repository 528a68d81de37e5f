// Package runtime is the connection lifecycle engine: it owns the
// listening endpoint, accepts connections, and pumps HTTP exchanges on
// them through the shared dispatcher.
//
// The acceptor and every connection pump are cyclic tasks run by an
// exec.Service. One pump invocation performs at most one
// request/response exchange, which keeps each connection's unit of work
// small and lets the scheduler interleave many connections instead of
// dedicating a blocking thread to each for its whole life.
package runtime
