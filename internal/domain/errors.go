package domain

import "errors"

var (
	// ErrInput marks a run aborted by bad input: an empty or malformed airport
	// table, or an empty calendar.
	ErrInput = errors.New("input error")

	// ErrIO marks a run aborted by an unreadable input or an unwritable output.
	ErrIO = errors.New("io error")
)
