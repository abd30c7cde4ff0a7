package verifier

// Result accumulates the errors a verification pass produces. A block is
// verified iff Errors is empty — there is no PENDING state here, unlike the
// teacher's account/snapshot verifiers: a Block's collaborators (crypto,
// store, delegates) are called synchronously, so a check either has its
// answer immediately or fails outright.
type Result struct {
	Errors []error
}

func (r *Result) Verified() bool {
	return len(r.Errors) == 0
}

func (r *Result) add(err error) {
	r.Errors = append(r.Errors, err)
}
