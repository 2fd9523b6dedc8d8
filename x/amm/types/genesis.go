package types

import (
	"fmt"
)

// GenesisState is the full exported state of the AMM module.
type GenesisState struct {
	Params       Params                  `json:"params"`
	Pools        []Pool                  `json:"pools"`
	NextPoolId   uint64                  `json:"next_pool_id"`
	Positions    []Position              `json:"positions"`
	Observations []PriceObservation      `json:"observations"`
	Breaker      BreakerState            `json:"breaker"`
	PoolBreakers map[uint64]BreakerState `json:"pool_breakers,omitempty"`
}

// DefaultGenesis returns the default genesis state for the AMM module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:     DefaultParams(),
		Pools:      []Pool{},
		NextPoolId: 1,
		Positions:  []Position{},
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if gs.NextPoolId == 0 {
		return fmt.Errorf("next pool id must be positive")
	}

	seenIDs := make(map[uint64]struct{}, len(gs.Pools))
	seenPairs := make(map[string]struct{}, len(gs.Pools))
	for _, pool := range gs.Pools {
		if err := pool.Validate(); err != nil {
			return err
		}
		if pool.Id >= gs.NextPoolId {
			return fmt.Errorf("pool %d: id not below next pool id %d", pool.Id, gs.NextPoolId)
		}
		if _, ok := seenIDs[pool.Id]; ok {
			return fmt.Errorf("duplicate pool id %d", pool.Id)
		}
		seenIDs[pool.Id] = struct{}{}
		pair := pool.Token0 + "/" + pool.Token1
		if _, ok := seenPairs[pair]; ok {
			return fmt.Errorf("duplicate pool for pair %s", pair)
		}
		seenPairs[pair] = struct{}{}
	}

	for _, pos := range gs.Positions {
		if _, ok := seenIDs[pos.PoolId]; !ok {
			return fmt.Errorf("position references unknown pool %d", pos.PoolId)
		}
		if pos.Owner == "" {
			return fmt.Errorf("position in pool %d missing owner", pos.PoolId)
		}
		if pos.Shares.IsNil() || !pos.Shares.IsPositive() {
			return fmt.Errorf("position in pool %d must hold positive shares", pos.PoolId)
		}
	}

	for _, obs := range gs.Observations {
		if _, ok := seenIDs[obs.PoolId]; !ok {
			return fmt.Errorf("observation references unknown pool %d", obs.PoolId)
		}
	}

	return nil
}
