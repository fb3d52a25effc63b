// Package engine is the root component of typox: it owns the store
// registry and runs every load, query and maintenance operation as one
// synchronous, atomic pass.
//
// Engine is the Go API. Protocol wraps an Engine in the byte-buffer
// calling convention used by plugin hosts: each call takes argument
// buffers and returns one result buffer and a status, 0 on success and 1
// on failure with an "ERROR: <message>" payload.
//
// DETERMINISM:
//
// Nothing here reads the wall clock or OS entropy. Blank-node ids come from
// each store's counter, store listings are name-sorted, and query output
// depends only on the store contents and the query text. Logging goes
// through slog and never changes a result.
//
// CONCURRENCY:
//
// Operations are serialized by a mutex. The registry and stores below do
// no locking of their own.
package engine
