// Package exec runs repeatable units of work ("cyclic tasks") on
// independently cancellable goroutines.
//
// A cyclic task is invoked once per cycle and reports whether it should
// be invoked again. The connection acceptor and every connection pump
// are cyclic tasks; the service owns their lifecycle so that closing a
// socket out-of-band is never the only way to stop one.
package exec
