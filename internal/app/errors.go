package app

import "errors"

// Failure taxonomy for ledger operations. Handlers map these onto HTTP
// status codes; everything else is treated as a storage failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoMembers           = errors.New("group has no members")
)
