package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Params are the governance-adjustable knobs of the AMM engine. Fees are
// expressed in basis points so they stay exact under integer math.
type Params struct {
	// SwapFeeBps is charged on every swap's input amount. 30 = 0.30%.
	SwapFeeBps uint64 `json:"swap_fee_bps"`

	// FlashLoanFeeBps is charged on the borrowed amount, rounded up so a
	// nonzero loan always pays a nonzero fee.
	FlashLoanFeeBps uint64 `json:"flash_loan_fee_bps"`

	// MinimumLiquidity is the share amount permanently locked on a pool's
	// first deposit, pricing a donation attack on empty pools.
	MinimumLiquidity sdkmath.Int `json:"minimum_liquidity"`

	// MaxPriceChange is the largest single-swap spot price move the circuit
	// breaker tolerates, as a fraction. 0.50 means 50%.
	MaxPriceChange sdkmath.LegacyDec `json:"max_price_change"`

	// MaxVolumePerBlock caps the summed input volume a pool accepts within
	// one block. Zero disables the check.
	MaxVolumePerBlock sdkmath.Int `json:"max_volume_per_block"`

	// BreakerCooldownSeconds must elapse after a trip before the breaker
	// can be reset.
	BreakerCooldownSeconds uint64 `json:"breaker_cooldown_seconds"`

	// MaxHops bounds the route length the router will execute.
	MaxHops uint64 `json:"max_hops"`

	// TwapWindowSeconds is both the default TWAP lookback and the oracle
	// observation retention horizon.
	TwapWindowSeconds uint64 `json:"twap_window_seconds"`

	// ProtocolFeeOn diverts 1/6 of swap-fee growth to the fee collector.
	ProtocolFeeOn bool `json:"protocol_fee_on"`

	// FeeCollector receives protocol-fee share mints when enabled.
	FeeCollector string `json:"fee_collector,omitempty"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		SwapFeeBps:             30,
		FlashLoanFeeBps:        30,
		MinimumLiquidity:       sdkmath.NewInt(1_000),
		MaxPriceChange:         sdkmath.LegacyMustNewDecFromStr("0.50"),
		MaxVolumePerBlock:      sdkmath.ZeroInt(),
		BreakerCooldownSeconds: 3_600,
		MaxHops:                3,
		TwapWindowSeconds:      1_800,
		ProtocolFeeOn:          false,
	}
}

// Validate checks parameter sanity. Called on genesis import and on every
// parameter update.
func (p Params) Validate() error {
	if p.SwapFeeBps >= 10_000 {
		return fmt.Errorf("swap fee must be below 100%% (10000 bps), got %d", p.SwapFeeBps)
	}
	if p.FlashLoanFeeBps >= 10_000 {
		return fmt.Errorf("flash loan fee must be below 100%% (10000 bps), got %d", p.FlashLoanFeeBps)
	}
	if p.MinimumLiquidity.IsNil() || !p.MinimumLiquidity.IsPositive() {
		return fmt.Errorf("minimum liquidity must be positive")
	}
	if p.MaxPriceChange.IsNil() || p.MaxPriceChange.IsNegative() || p.MaxPriceChange.GT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("max price change must be between 0 and 1")
	}
	if p.MaxVolumePerBlock.IsNil() || p.MaxVolumePerBlock.IsNegative() {
		return fmt.Errorf("max volume per block must be non-negative")
	}
	if p.BreakerCooldownSeconds == 0 {
		return fmt.Errorf("breaker cooldown must be positive")
	}
	if p.MaxHops == 0 {
		return fmt.Errorf("max hops must be positive")
	}
	if p.TwapWindowSeconds == 0 {
		return fmt.Errorf("twap window must be positive")
	}
	if p.ProtocolFeeOn && p.FeeCollector == "" {
		return fmt.Errorf("fee collector required when protocol fee is enabled")
	}
	return nil
}
