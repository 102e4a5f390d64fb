package main

// dossierError is a wrapper around an error that adds a user facing reason.
type dossierError struct {
	err    error
	reason string
}

func (e dossierError) Error() string {
	return e.err.Error()
}

func (e dossierError) Reason() string {
	return e.reason
}

func (e dossierError) Unwrap() error {
	return e.err
}
