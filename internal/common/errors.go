package common

import "errors"

// Caller-visible failure classes. Handlers switch on these with errors.Is; anything else is
// treated as an internal failure.
var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTags        = errors.New("invalid tags provided")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrContentRejected    = errors.New("content contains inappropriate language")
	ErrCommentsDisabled   = errors.New("public comments are disabled for this blog post")
	ErrNotVerified        = errors.New("email address is not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEditConflict       = errors.New("edit conflict")
)
