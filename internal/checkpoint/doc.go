// Package checkpoint suspends a run until the user presses a key, giving them
// a chance to edit the decoded tree before it is rebuilt.
//
// The console is switched to raw mode only for the duration of the wait and
// is restored on every exit path, including cancellation.
package checkpoint
