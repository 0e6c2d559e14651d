package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	ErrRefreshTimeout        = errors.New("refresh timeout")
	ErrColdStartFailure      = errors.New("cold start failure")
	ErrServiceUnavailable    = errors.New("service unavailable")

	ErrIncompleteSnapshot = errors.New("incomplete snapshot")
	ErrInvalidSymbol      = errors.New("invalid symbol")
)

// SymbolError tags a fetch or parse failure with the symbol it belongs to.
type SymbolError struct {
	Symbol Symbol
	Err    error
}

func (e *SymbolError) Error() string { return fmt.Sprintf("symbol %s: %v", e.Symbol, e.Err) }

func (e *SymbolError) Unwrap() error { return e.Err }
