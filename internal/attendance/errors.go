package attendance

import "errors"

var (
	// ErrNotFound indicates no user matched the fingerprint or id.
	ErrNotFound = errors.New("no match found")

	// ErrRivalSession indicates a different teacher already holds the open session.
	ErrRivalSession = errors.New("another teacher's session is active")

	// ErrNoOpenSession indicates a student scanned while no session was open.
	ErrNoOpenSession = errors.New("attendance session not open")

	// ErrBadCredentials indicates a failed login.
	ErrBadCredentials = errors.New("invalid credentials")
)
