package network

import "errors"

var (
	ErrInvalidBusIndex     = errors.New("invalid bus index")
	ErrMaxBusesExceeded    = errors.New("maximum number of buses exceeded")
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrNotFound            = errors.New("not found")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrMissingSlack        = errors.New("slack bus not assigned")
	ErrDuplicateSlack      = errors.New("slack bus already exists")
	ErrUnsetQuantity       = errors.New("quantity not set")
	ErrInvalidParameter    = errors.New("invalid parameter")
)
