package types

// Event types emitted by the AMM module. External indexers and the web
// dashboard materialize these; every event carries the initiating party,
// the amounts involved, and the resulting reserves.
const (
	EventTypePoolCreated           = "amm_pool_created"
	EventTypeMint                  = "amm_mint"
	EventTypeBurn                  = "amm_burn"
	EventTypeSwap                  = "amm_swap"
	EventTypeSync                  = "amm_sync"
	EventTypeFlashLoan             = "amm_flash_loan"
	EventTypeCircuitBreakerTripped = "amm_circuit_breaker_tripped"
	EventTypeCircuitBreakerReset   = "amm_circuit_breaker_reset"
	EventTypePoolPaused            = "amm_pool_paused"
	EventTypePoolUnpaused          = "amm_pool_unpaused"
)

// Event attribute keys
const (
	AttributeKeyPoolID    = "pool_id"
	AttributeKeySender    = "sender"
	AttributeKeyRecipient = "recipient"
	AttributeKeyToken0    = "token0"
	AttributeKeyToken1    = "token1"
	AttributeKeyTokenIn   = "token_in"
	AttributeKeyTokenOut  = "token_out"
	AttributeKeyAmountIn  = "amount_in"
	AttributeKeyAmountOut = "amount_out"
	AttributeKeyAmount0   = "amount0"
	AttributeKeyAmount1   = "amount1"
	AttributeKeyShares    = "shares"
	AttributeKeyReserve0  = "reserve0"
	AttributeKeyReserve1  = "reserve1"
	AttributeKeyFee       = "fee"
	AttributeKeyReason    = "reason"
	AttributeKeyActor     = "actor"
	AttributeKeyTrippedAt = "tripped_at"
)
