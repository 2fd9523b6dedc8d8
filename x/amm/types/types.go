package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// PoolStatus is the lifecycle state of a pool. Swaps and deposits require
// Active; withdrawals are allowed while Paused so providers can always exit.
type PoolStatus int32

const (
	PoolStatusActive PoolStatus = iota
	PoolStatusPaused
)

func (s PoolStatus) String() string {
	switch s {
	case PoolStatusActive:
		return "active"
	case PoolStatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Pool is the canonical state of a constant-product pair. Token0 sorts
// lexicographically before Token1 so (A,B) and (B,A) resolve to one pool.
type Pool struct {
	Id          uint64      `json:"id"`
	Token0      string      `json:"token0"`
	Token1      string      `json:"token1"`
	Reserve0    sdkmath.Int `json:"reserve0"`
	Reserve1    sdkmath.Int `json:"reserve1"`
	TotalShares sdkmath.Int `json:"total_shares"`

	// KLast is reserve0*reserve1 as of the most recent mint or burn. It is
	// only maintained while protocol fees are enabled and feeds the
	// sqrt(k)-growth fee mint.
	KLast sdkmath.Int `json:"k_last"`

	// Cumulative prices for the TWAP oracle. Each accumulates
	// spot price * elapsed seconds, updated before any reserve change.
	Price0CumulativeLast sdkmath.LegacyDec `json:"price0_cumulative_last"`
	Price1CumulativeLast sdkmath.LegacyDec `json:"price1_cumulative_last"`

	// LastUpdateTimestamp is block time truncated to uint32. Elapsed time
	// is computed modulo 2^32 so the accumulators survive wraparound.
	LastUpdateTimestamp uint32 `json:"last_update_timestamp"`

	Status PoolStatus `json:"status"`

	// Per-block volume tracking for the circuit breaker. The counter is
	// implicitly zeroed whenever LastVolumeBlock falls behind the current
	// block height.
	VolumeInCurrentBlock sdkmath.Int `json:"volume_in_current_block"`
	LastVolumeBlock      int64       `json:"last_volume_block"`
}

// NewPool builds a fresh pool for an already-ordered token pair.
func NewPool(id uint64, token0, token1 string) Pool {
	return Pool{
		Id:                   id,
		Token0:               token0,
		Token1:               token1,
		Reserve0:             sdkmath.ZeroInt(),
		Reserve1:             sdkmath.ZeroInt(),
		TotalShares:          sdkmath.ZeroInt(),
		KLast:                sdkmath.ZeroInt(),
		Price0CumulativeLast: sdkmath.LegacyZeroDec(),
		Price1CumulativeLast: sdkmath.LegacyZeroDec(),
		Status:               PoolStatusActive,
		VolumeInCurrentBlock: sdkmath.ZeroInt(),
	}
}

// EscrowAddress returns the module account that custodies this pool's funds.
func (p Pool) EscrowAddress() sdk.AccAddress {
	return PoolEscrowAddress(p.Id)
}

// PoolEscrowAddress derives the escrow account for a pool id.
func PoolEscrowAddress(poolID uint64) sdk.AccAddress {
	return authtypes.NewModuleAddress(fmt.Sprintf(PoolEscrowNameFormat, poolID))
}

// LockedSharesAddress holds the permanently locked minimum-liquidity shares.
func LockedSharesAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(LockedSharesName)
}

// HasToken reports whether denom is one of the pool's two tokens.
func (p Pool) HasToken(denom string) bool {
	return denom == p.Token0 || denom == p.Token1
}

// OtherToken returns the pool token paired with denom. The caller must have
// already checked HasToken.
func (p Pool) OtherToken(denom string) string {
	if denom == p.Token0 {
		return p.Token1
	}
	return p.Token0
}

// ReservesFor returns (reserveIn, reserveOut) oriented for a swap selling
// tokenIn into the pool.
func (p Pool) ReservesFor(tokenIn string) (sdkmath.Int, sdkmath.Int) {
	if tokenIn == p.Token0 {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

// Validate performs structural checks used by genesis import and the
// per-operation state validation pass.
func (p Pool) Validate() error {
	if p.Id == 0 {
		return fmt.Errorf("pool id must be positive")
	}
	if strings.TrimSpace(p.Token0) == "" || strings.TrimSpace(p.Token1) == "" {
		return fmt.Errorf("pool %d: token denominations cannot be empty", p.Id)
	}
	if p.Token0 == p.Token1 {
		return fmt.Errorf("pool %d: identical token denominations", p.Id)
	}
	if p.Token0 > p.Token1 {
		return fmt.Errorf("pool %d: tokens out of canonical order", p.Id)
	}
	if p.Reserve0.IsNegative() || p.Reserve1.IsNegative() {
		return fmt.Errorf("pool %d: negative reserves", p.Id)
	}
	if p.TotalShares.IsNegative() {
		return fmt.Errorf("pool %d: negative total shares", p.Id)
	}
	if p.TotalShares.IsZero() != (p.Reserve0.IsZero() && p.Reserve1.IsZero()) {
		return fmt.Errorf("pool %d: shares and reserves disagree about emptiness", p.Id)
	}
	return nil
}

// SortTokens returns the pair in canonical order.
func SortTokens(denomA, denomB string) (string, string) {
	if denomA < denomB {
		return denomA, denomB
	}
	return denomB, denomA
}

// Position records one provider's share balance in one pool.
type Position struct {
	PoolId uint64      `json:"pool_id"`
	Owner  string      `json:"owner"`
	Shares sdkmath.Int `json:"shares"`
}

// BreakerState is the persisted circuit breaker record, kept globally and
// per pool. A zero-value record means the breaker has never tripped.
type BreakerState struct {
	Tripped   bool   `json:"tripped"`
	Reason    string `json:"reason,omitempty"`
	Actor     string `json:"actor,omitempty"`
	TrippedAt int64  `json:"tripped_at,omitempty"`
}

// PriceObservation is one TWAP oracle checkpoint. Observations older than
// the retention window are pruned lazily on read.
type PriceObservation struct {
	PoolId           uint64            `json:"pool_id"`
	Timestamp        uint32            `json:"timestamp"`
	Price0Cumulative sdkmath.LegacyDec `json:"price0_cumulative"`
	Price1Cumulative sdkmath.LegacyDec `json:"price1_cumulative"`
}

// FlashLoanReceiver executes borrower logic while holding flashed funds.
// The callback runs on a branched state; returning an error discards every
// write it made.
type FlashLoanReceiver func(ctx sdk.Context, loan sdk.Coin, fee sdkmath.Int) error
