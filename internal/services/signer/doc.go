// Package signer drives uber-apk-signer to zipalign and sign rebuilt APKs
// with its bundled debug key.
package signer
