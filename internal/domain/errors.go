package domain

import "errors"

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrStoreUnavailable     = errors.New("profile store unavailable")
	ErrInvalidPurchaseEvent = errors.New("invalid purchase event")
)
