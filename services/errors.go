package services

import "errors"

var (
	// ErrProjectNotFound covers missing projects, malformed project ids and
	// projects owned by another account, so callers cannot tell them apart.
	ErrProjectNotFound = errors.New("project not found")

	ErrEmailTaken          = errors.New("user already exists")
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	ErrSearchQueryRequired = errors.New("search query is required")
	ErrInvalidPatch        = errors.New("invalid project payload")

	// ErrConcurrentModification means a versioned save lost a race with
	// another writer on the same document.
	ErrConcurrentModification = errors.New("project was modified concurrently")
)
