// Package tlsutil centralizes TLS configuration for the HTTP clients and
// servers in alphawave: TLS 1.2+, AEAD cipher suites only.
package tlsutil
