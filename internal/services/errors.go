package services

import "errors"

// Common service errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("you do not have access to this resource")
	ErrInvalidState     = errors.New("invalid status transition")
	ErrDuplicate        = errors.New("duplicate record")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidResetCode = errors.New("reset code is invalid or has expired")
	ErrMissingReason    = errors.New("rejection reason is required")
	ErrMissingSignature = errors.New("director signature is required")
	ErrApprovedLocked   = errors.New("approved documents cannot be modified")
)
