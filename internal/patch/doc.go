// Package patch assembles the apk-mitm stage list and runs it.
//
// Run decodes the input APK into a temporary directory, rewrites the manifest
// and network security config, disables certificate pinning, optionally waits
// for manual edits, rebuilds with AAPT2 (falling back to AAPT), signs, and
// finally moves the signed archive to the requested output path. The output
// path is only ever written by an atomic rename, so a failed or interrupted
// run never leaves a partial artifact there.
package patch
