/*
Package server manages the HTTP/HTTPS listener lifecycle: non-blocking start,
graceful shutdown and signal handling.

Manager wraps net/http.Server with Start/StartTLS/Shutdown/WaitForShutdown.
Serve errors surface asynchronously on Errors(), and WaitForShutdown blocks
until SIGINT/SIGTERM or a serve failure before draining connections within
the configured shutdown timeout.
*/
package server
