package keeper

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// PoolKeyPrefix is the prefix for pool store keys
	PoolKeyPrefix = []byte{0x01}

	// PoolCountKey is the key for the next pool ID counter
	PoolCountKey = []byte{0x02}

	// PoolByTokensKeyPrefix is the prefix for indexing pools by token pair
	PoolByTokensKeyPrefix = []byte{0x03}

	// PositionKeyPrefix is the prefix for liquidity position store keys
	PositionKeyPrefix = []byte{0x04}

	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x05}

	// BreakerKeyPrefix is the prefix for circuit breaker state keys.
	// Pool id 0 is the global breaker; real pool ids start at 1.
	BreakerKeyPrefix = []byte{0x06}

	// ReentrancyLockKeyPrefix is the prefix for reentrancy protection locks
	ReentrancyLockKeyPrefix = []byte{0x07}

	// ObservationKeyPrefix is the prefix for TWAP oracle observations
	ObservationKeyPrefix = []byte{0x08}
)

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// PoolKey returns the store key for a pool by ID
func PoolKey(poolID uint64) []byte {
	return append(PoolKeyPrefix, uint64Bytes(poolID)...)
}

// PoolByTokensKey returns the store key for indexing a pool by its token pair
func PoolByTokensKey(tokenA, tokenB string) []byte {
	// Ensure consistent ordering: tokenA < tokenB lexicographically
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
	}
	key := append(PoolByTokensKeyPrefix, []byte(tokenA)...)
	key = append(key, []byte("/")...)
	key = append(key, []byte(tokenB)...)
	return key
}

// PositionKey returns the store key for a liquidity position
func PositionKey(poolID uint64, provider sdk.AccAddress) []byte {
	key := append(PositionKeyPrefix, uint64Bytes(poolID)...)
	key = append(key, provider.Bytes()...)
	return key
}

// PositionsByPoolPrefix returns the prefix for all positions in a pool
func PositionsByPoolPrefix(poolID uint64) []byte {
	return append(PositionKeyPrefix, uint64Bytes(poolID)...)
}

// BreakerKey returns the store key for circuit breaker state
func BreakerKey(poolID uint64) []byte {
	return append(BreakerKeyPrefix, uint64Bytes(poolID)...)
}

// ReentrancyLockKey returns the store key for a reentrancy lock
func ReentrancyLockKey(poolID uint64) []byte {
	return append(ReentrancyLockKeyPrefix, uint64Bytes(poolID)...)
}

// ObservationKey returns the store key for one oracle observation. Keys are
// (pool, timestamp) so a prefix scan walks a pool's observations in time
// order within one wraparound epoch.
func ObservationKey(poolID uint64, timestamp uint32) []byte {
	key := append(ObservationKeyPrefix, uint64Bytes(poolID)...)
	tsBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(tsBytes, timestamp)
	return append(key, tsBytes...)
}

// ObservationsByPoolPrefix returns the prefix for all observations of a pool
func ObservationsByPoolPrefix(poolID uint64) []byte {
	return append(ObservationKeyPrefix, uint64Bytes(poolID)...)
}
