package triplestore

import "github.com/roach88/typox/internal/rdferr"

// Quota enforces a ceiling on one resource.
//
// A store holds a triple quota checked before a batch is applied; the query
// evaluator holds a binding quota checked after every join step. A limit of
// zero or less disables the check.
type Quota struct {
	resource string
	limit    int
}

// NewQuota creates a quota for the named resource ("triples", "bindings").
func NewQuota(resource string, limit int) *Quota {
	return &Quota{resource: resource, limit: limit}
}

// Check returns a CapacityError if requested exceeds the limit.
func (q *Quota) Check(requested int) error {
	if q == nil || q.limit <= 0 {
		return nil
	}
	if requested > q.limit {
		return &rdferr.CapacityError{
			Resource:  q.resource,
			Limit:     q.limit,
			Requested: requested,
		}
	}
	return nil
}

// Limit returns the configured ceiling.
func (q *Quota) Limit() int {
	if q == nil {
		return 0
	}
	return q.limit
}

// Resource returns the name of the guarded resource.
func (q *Quota) Resource() string {
	if q == nil {
		return ""
	}
	return q.resource
}
