package visitor

import "errors"

// Sentinel errors for the visitor service layer.
var (
	ErrNotFound       = errors.New("visitor not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupAmbiguous = errors.New("group name matches more than one group")
	ErrInvalidStatus  = errors.New("invalid visitor status")
)
