package types

import (
	"cosmossdk.io/errors"
)

// AMM module sentinel errors.
//
// The registry is split along the caller-facing taxonomy: validation errors
// are rejected before any state mutation, economic-safety errors revert the
// whole operation and invite resubmission with adjusted parameters,
// integrity errors are fatal for the call and never retried internally, and
// operational errors tell the caller the engine is temporarily unavailable
// rather than that the inputs were wrong.
var (
	// Validation
	ErrIdenticalTokens  = errors.Register(ModuleName, 2, "identical token denominations")
	ErrInvalidRecipient = errors.Register(ModuleName, 3, "invalid recipient address")
	ErrZeroAmount       = errors.Register(ModuleName, 4, "amount cannot be zero")
	ErrExpired          = errors.Register(ModuleName, 5, "deadline has passed")
	ErrInvalidInput     = errors.Register(ModuleName, 6, "invalid input")
	ErrTooManyHops      = errors.Register(ModuleName, 7, "swap path exceeds maximum hops")

	// Economic safety
	ErrInsufficientOutputAmount = errors.Register(ModuleName, 10, "output amount below minimum")
	ErrSlippageExceeded         = errors.Register(ModuleName, 11, "slippage exceeded requested bounds")
	ErrInsufficientLiquidity    = errors.Register(ModuleName, 12, "insufficient liquidity in pool")
	ErrExcessivePriceChange     = errors.Register(ModuleName, 13, "price impact exceeds circuit breaker limit")
	ErrVolumeLimitExceeded      = errors.Register(ModuleName, 14, "per-block volume limit exceeded")
	ErrInsufficientShares       = errors.Register(ModuleName, 15, "insufficient liquidity shares")

	// Integrity
	ErrInsufficientRepayment = errors.Register(ModuleName, 20, "flash loan not repaid with fee")
	ErrInvariantViolation    = errors.Register(ModuleName, 21, "constant product invariant violated")
	ErrReentrancy            = errors.Register(ModuleName, 22, "reentrant call rejected")
	ErrInvalidPoolState      = errors.Register(ModuleName, 23, "invalid pool state")
	ErrOverflow              = errors.Register(ModuleName, 24, "arithmetic overflow")

	// Operational
	ErrPoolPaused           = errors.Register(ModuleName, 30, "pool is paused")
	ErrCircuitBreakerActive = errors.Register(ModuleName, 31, "circuit breaker is active")
	ErrCooldownActive       = errors.Register(ModuleName, 32, "circuit breaker cooldown has not elapsed")
	ErrUnauthorized         = errors.Register(ModuleName, 33, "unauthorized")
	ErrPoolNotFound         = errors.Register(ModuleName, 34, "pool not found")
	ErrDuplicatePool        = errors.Register(ModuleName, 35, "pool already exists for token pair")
	ErrStaleOracle          = errors.Register(ModuleName, 36, "no price observation spans the requested window")
)
