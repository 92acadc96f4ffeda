// Package config loads, normalizes, and validates apk-mitm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// APK_MITM_APKTOOL, APK_MITM_SIGNER, and JAVA_HOME. The Config type centralizes
// every knob the CLI needs, so tool locations, the temporary work root, and
// patch defaults are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
