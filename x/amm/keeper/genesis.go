package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// InitGenesis imports module state. The genesis is assumed validated.
func (k Keeper) InitGenesis(ctx context.Context, genState types.GenesisState) error {
	if err := k.SetParams(ctx, genState.Params); err != nil {
		return err
	}
	k.SetNextPoolID(ctx, genState.NextPoolId)

	store := k.getStore(ctx)
	for _, pool := range genState.Pools {
		if err := k.SetPool(ctx, pool); err != nil {
			return err
		}
		store.Set(PoolByTokensKey(pool.Token0, pool.Token1), uint64Bytes(pool.Id))
	}

	for _, pos := range genState.Positions {
		owner, err := sdk.AccAddressFromBech32(pos.Owner)
		if err != nil {
			return fmt.Errorf("position owner %s: %w", pos.Owner, err)
		}
		if err := k.setPositionShares(ctx, pos.PoolId, owner, pos.Shares); err != nil {
			return err
		}
	}

	for _, obs := range genState.Observations {
		pool, found := k.GetPool(ctx, obs.PoolId)
		if !found {
			return fmt.Errorf("observation references unknown pool %d", obs.PoolId)
		}
		pool.Price0CumulativeLast = obs.Price0Cumulative
		pool.Price1CumulativeLast = obs.Price1Cumulative
		k.recordObservation(ctx, pool, obs.Timestamp)
	}

	if genState.Breaker.Tripped {
		k.setBreaker(ctx, GlobalBreakerID, genState.Breaker)
	}
	for poolID, state := range genState.PoolBreakers {
		if state.Tripped {
			k.setBreaker(ctx, poolID, state)
		}
	}

	return nil
}

// ExportGenesis dumps module state for chain export.
func (k Keeper) ExportGenesis(ctx context.Context) *types.GenesisState {
	genState := types.GenesisState{
		Params:     k.GetParams(ctx),
		NextPoolId: k.GetNextPoolID(ctx),
		Breaker:    k.GetBreaker(ctx, GlobalBreakerID),
	}

	pools := k.GetAllPools(ctx)
	genState.Pools = pools
	for _, pool := range pools {
		genState.Positions = append(genState.Positions, k.GetPoolPositions(ctx, pool.Id)...)
		genState.Observations = append(genState.Observations, k.GetObservations(ctx, pool.Id)...)
		if state := k.GetBreaker(ctx, pool.Id); state.Tripped {
			if genState.PoolBreakers == nil {
				genState.PoolBreakers = make(map[uint64]types.BreakerState)
			}
			genState.PoolBreakers[pool.Id] = state
		}
	}

	return &genState
}
