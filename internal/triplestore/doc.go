// Package triplestore holds the in-memory triple stores and the registry
// that names them.
//
// A Store is a set: inserting a triple twice is a no-op. Each store owns a
// monotonic Counter from which blank-node ids are drawn, so blank ids are
// deterministic per store and never collide across loads. Ceilings are
// enforced by Quota and reported as *rdferr.CapacityError.
//
// Nothing in this package locks. The engine serializes every operation.
package triplestore
