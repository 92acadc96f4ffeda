// Package main hosts the apk-mitm CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, wires the apktool and
// uber-apk-signer clients into the patch pipeline, and renders progress and
// results. Behaviour lives in the internal packages; commands here only
// translate flags into options and options into output.
package main
