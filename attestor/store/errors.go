package store

import "errors"

var (
	// ErrCorruptedClaimDb For some reason, db on disk representation have changed
	ErrCorruptedClaimDb = errors.New("claim db is corrupted")

	// ErrClaimNotFound The claim we try to fetch is not found in db
	ErrClaimNotFound = errors.New("claim not found")
)
