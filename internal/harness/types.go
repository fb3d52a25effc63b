package harness

// TraceEvent records one protocol call and its outcome.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Store   string `json:"store,omitempty"`
	Status  string `json:"status"`
	Payload string `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every call in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps each store name to its final triple count.
	State map[string]int `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]int),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a call to the trace and returns its sequence number.
func (r *Result) AddTrace(op, store, status, payload string) int {
	seq := len(r.Trace) + 1
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Op:      op,
		Store:   store,
		Status:  status,
		Payload: payload,
	})
	return seq
}
