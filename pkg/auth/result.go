package auth

// Result is the immutable outcome of a verification attempt.
// The zero value is a failure with a generic reason.
type Result struct {
	err      error
	subject  Subject
	identity *Identity
}

// Success builds a successful result. identity may be nil for schemes
// without a backing record (e.g. JWT).
func Success(subject Subject, identity *Identity) Result {
	return Result{subject: subject, identity: identity.Clone()}
}

// Failure builds a failed result carrying err as the reason.
func Failure(err error) Result {
	if err == nil {
		err = ErrInvalidCredentials
	}
	return Result{err: err}
}

// OK reports whether verification succeeded.
func (r Result) OK() bool {
	return r.err == nil && r.subject != nil
}

// Err returns the failure reason, nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	if r.err == nil {
		return ErrInvalidCredentials
	}
	return r.err
}

// Reason returns a human readable failure explanation, empty on success.
func (r Result) Reason() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// ReasonKey returns the localisation key of the failure, empty on success.
func (r Result) ReasonKey() string {
	if err := r.Err(); err != nil {
		return ReasonKey(err)
	}
	return ""
}

// Subject returns the authenticated subject, nil on failure.
func (r Result) Subject() Subject {
	if !r.OK() {
		return nil
	}
	return r.subject
}

// Identity returns a copy of the record that matched, nil on failure
// or for schemes without one.
func (r Result) Identity() *Identity {
	if !r.OK() {
		return nil
	}
	return r.identity.Clone()
}
