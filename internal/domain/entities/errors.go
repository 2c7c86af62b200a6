package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPercent is returned when a slippage string does not match "<n>[.<f>]%".
	ErrMalformedPercent = errors.New("malformed percent string")
	// ErrMalformedPool is returned for a pool entry that is not "BASE-QUOTE".
	ErrMalformedPool = errors.New("malformed pool pair")
	// ErrUnrecognizedToken is returned when a symbol is missing from the chain's token list.
	ErrUnrecognizedToken = errors.New("unrecognized token")
	// ErrPriceUnavailable is returned when no route or pair can price a trade.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrUnsupportedTarget is returned for unknown chain or connector names.
	ErrUnsupportedTarget = errors.New("unsupported target")
	// ErrDependencyUnavailable is returned when the underlying chain is not ready.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrPoolNotFound is returned when a configured pair has no on-chain pool.
	ErrPoolNotFound = errors.New("pool not found")
)

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MalformedPoolError reports a configured pool entry that is not "BASE-QUOTE".
type MalformedPoolError struct {
	Entry string
}

func (e *MalformedPoolError) Error() string {
	return fmt.Sprintf("the pool pair %s is malformed, it should be a string in the format 'BASE-QUOTE'", e.Entry)
}

func (e *MalformedPoolError) Unwrap() error {
	return ErrMalformedPool
}

// TokenSide says which side of a pool pair a token was configured on.
type TokenSide string

const (
	SideBase  TokenSide = "base"
	SideQuote TokenSide = "quote"
)

// UnrecognizedTokenError reports a configured symbol the chain does not know.
type UnrecognizedTokenError struct {
	Side   TokenSide
	Symbol string
	Chain  string
}

func (e *UnrecognizedTokenError) Error() string {
	return fmt.Sprintf("unrecognized %s token for %s: %s", e.Side, e.Chain, e.Symbol)
}

func (e *UnrecognizedTokenError) Unwrap() error {
	return ErrUnrecognizedToken
}

// NoLiquidityError is the typed price error surfaced when nothing can quote a trade.
type NoLiquidityError struct {
	Operation string
	TokenIn   Token
	TokenOut  Token
	Err       error
}

func (e *NoLiquidityError) Error() string {
	msg := fmt.Sprintf("%s: no trade pair found for %s to %s", e.Operation, e.TokenIn.Address.Hex(), e.TokenOut.Address.Hex())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrPriceUnavailable) hold while Unwrap exposes the cause.
func (e *NoLiquidityError) Is(target error) bool {
	return target == ErrPriceUnavailable
}

func (e *NoLiquidityError) Unwrap() error {
	return e.Err
}

// UnavailableDependencyError reports that a connector's chain is not ready.
type UnavailableDependencyError struct {
	Dependency string
	Err        error
}

func (e *UnavailableDependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not available: %v", e.Dependency, e.Err)
	}
	return fmt.Sprintf("%s is not available", e.Dependency)
}

func (e *UnavailableDependencyError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

func (e *UnavailableDependencyError) Unwrap() error {
	return e.Err
}

// UnsupportedTargetError names the chain or connector a caller asked for.
type UnsupportedTargetError struct {
	Kind  string
	Value string
	Hint  string
}

func (e *UnsupportedTargetError) Error() string {
	msg := fmt.Sprintf("unsupported %s: %s", e.Kind, e.Value)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *UnsupportedTargetError) Unwrap() error {
	return ErrUnsupportedTarget
}
