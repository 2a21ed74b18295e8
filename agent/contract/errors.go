package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrItemNotFound    = errors.New("item not found")
	ErrPackageNotFound = errors.New("package not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrStageNotReady   = errors.New("pipeline stage not ready")
	ErrCheckout        = errors.New("checkout failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSearch          = errors.New("search request failed")
)
