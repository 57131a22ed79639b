// Package memory holds the working state a wave reads and writes while
// orchestrating a conversation: named variables for prompt interpolation and
// the message history itself.
//
// VolatileMemory keeps everything in process. RedisMemory keys the same
// contract by conversation ID with a TTL so state survives restarts and can
// be shared between instances. Fork overlays a base memory for speculative
// writes that should not leak back, which is how the repair loop keeps failed
// attempts out of the durable history.
package memory
