// Package apktool wraps the apktool jar used to decode an APK into an
// editable tree and to rebuild the tree into an unsigned archive.
//
// Commands run through services.Executor so tests can replay recorded output
// without a JVM. Decode reports lines through a callback; Encode yields them as
// a sequence so callers can relay progress and then observe the exit status.
package apktool
