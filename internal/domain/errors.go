package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyResolved    = errors.New("market already resolved")
	ErrInvalidOption      = errors.New("winning option is not one of the market's options")
	ErrUnresolvableMarket = errors.New("market has more than two options")
	ErrTransactionFailure = errors.New("transaction failed")
	ErrLockHeld           = errors.New("lock already held")
)
