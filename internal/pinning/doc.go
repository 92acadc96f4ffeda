// Package pinning neutralizes certificate pinning in decoded smali code.
//
// Classes implementing javax.net.ssl.X509TrustManager get trust checks that
// always pass, and OkHttp's CertificatePinner gets a check that never
// throws. Files are rewritten in place; patching an already patched tree
// produces the same output.
package pinning
