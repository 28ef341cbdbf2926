package ratesd

import "errors"

var (
	ErrInvalidISO   = errors.New("invalid ISO currency code, expected 3 letters")
	ErrUnsupported  = errors.New("currency is not supported")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("end date must not precede start date")
	ErrConnConfig   = errors.New("incomplete database configuration, host/user/database are required")
	ErrMissingKey   = errors.New("rate source API key is not configured")
	ErrUpstream     = errors.New("rate source error")
	ErrZeroRate     = errors.New("rate is zero, inverse cannot be computed")
	ErrStorage      = errors.New("storage error")
)
