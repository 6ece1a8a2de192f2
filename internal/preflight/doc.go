// Package preflight provides readiness checks for the services and paths
// cinematch depends on.
//
// "cinematch doctor" runs RunAll and prints one row per check. The batch
// commands do not call it; they ping the catalog themselves before the first
// record so a bad credential aborts the run early.
package preflight
