// Package future provides a settle-once future and the all-settled
// combinator the registry and the global watcher build on.
//
// A Future settles exactly once, either resolved with a value or rejected
// with an error. Settlement is observable through the Done channel, which
// makes every Future usable wherever a Waiter is expected (delay gates,
// all-ready composition).
package future
