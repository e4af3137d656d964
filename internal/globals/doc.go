// Package globals implements the global availability watcher: a secondary
// registry that calls back once a dotted symbol path becomes reachable in
// the shared namespace, typically after an externally loaded script
// attached a library to it.
//
// Resolution is push-triggered. Outstanding waits are re-checked only when a
// script load is reported (ScriptLoaded, or an event from an observed
// scriptsource.Source), never on a timer. A symbol that appears by other
// means is picked up at the next script load, or immediately by any later
// WhenGlobalReady call.
package globals
