package account

import "errors"

// Sentinel errors for the account service layer.
var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrInUse      = errors.New("account is referenced by visitors")
)
