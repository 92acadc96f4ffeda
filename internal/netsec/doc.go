// Package netsec renders the network security config that makes a patched
// app trust user-installed certificate authorities.
package netsec
