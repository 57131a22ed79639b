// Package audit records one entry per completed wave turn for offline
// analysis: which model answered, whether validation passed, how many repair
// rounds it took, and the final feedback when it did not.
//
// The Mongo writer buffers records in memory and flushes them in batches
// from a background worker, so the bot's reply path never blocks on the
// audit store. When the buffer is full, records are dropped and counted
// rather than applying backpressure.
package audit
