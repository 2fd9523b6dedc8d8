package keeper

import (
	"context"
	"encoding/json"

	"github.com/surgeswap/surge/x/amm/types"
)

// GetParams returns the current module parameters, falling back to defaults
// when none have been stored yet.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	store := k.getStore(ctx)
	bz := store.Get(ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}

	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// SetParams validates and stores the module parameters.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return types.ErrInvalidInput.Wrapf("invalid params: %v", err)
	}

	bz, err := json.Marshal(params)
	if err != nil {
		return types.ErrInvalidInput.Wrapf("marshal params: %v", err)
	}

	k.getStore(ctx).Set(ParamsKey, bz)
	return nil
}
