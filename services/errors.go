package services

import "errors"

// Recoverable, user-facing failures of lifecycle operations. Controllers map
// these to 4xx responses; anything else rolls back the transaction and
// surfaces as a server error.
var (
	ErrEmptyProcess  = errors.New("process has no steps")
	ErrNoAssignee    = errors.New("no responsible user could be resolved")
	ErrNotAuthorized = errors.New("not authorized for this action")
	ErrInvalidState  = errors.New("request is not in the required status")
	ErrEmptyComment  = errors.New("a comment is required")
	ErrInvalidTarget = errors.New("return target is not a valid earlier step")
	ErrNotFound      = errors.New("not found")
)
