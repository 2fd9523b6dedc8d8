package types

const (
	// ModuleName defines the module name
	ModuleName = "amm"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// QuerierRoute defines the module's query routing key
	QuerierRoute = ModuleName

	// LockedSharesName is the account name that permanently holds the
	// minimum-liquidity shares minted on a pool's first deposit. Nothing
	// can ever redeem positions held under this name.
	LockedSharesName = ModuleName + "/locked"

	// PoolEscrowNameFormat derives per-pool escrow account names. Each pool
	// custodies its own funds so balance-delta checks and Sync are exact.
	PoolEscrowNameFormat = ModuleName + "/pool/%d"
)
