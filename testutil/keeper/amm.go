package keeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/surgeswap/surge/x/amm/keeper"
	"github.com/surgeswap/surge/x/amm/types"
)

// TestAuthority is the module authority used in test keepers.
var TestAuthority = sdk.AccAddress("amm-authority-------").String()

// StoreBankKeeper is a bank keeper backed by its own KVStore mounted in the
// test multistore. Branch-and-commit flows then genuinely roll balances
// back, which is what the flash loan tests need to observe.
type StoreBankKeeper struct {
	storeKey storetypes.StoreKey
}

func balanceKey(addr sdk.AccAddress, denom string) []byte {
	return []byte(fmt.Sprintf("balance/%s/%s", addr.String(), denom))
}

func (b StoreBankKeeper) getStore(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(b.storeKey)
}

// GetBalance implements types.BankKeeper.
func (b StoreBankKeeper) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	bz := b.getStore(ctx).Get(balanceKey(addr, denom))
	if bz == nil {
		return sdk.NewCoin(denom, sdkmath.ZeroInt())
	}
	amount, ok := sdkmath.NewIntFromString(string(bz))
	if !ok {
		return sdk.NewCoin(denom, sdkmath.ZeroInt())
	}
	return sdk.NewCoin(denom, amount)
}

// SpendableCoins implements types.BankKeeper. The prefix scan keys on the
// bech32 address, which is unambiguous because it never contains '/'.
func (b StoreBankKeeper) SpendableCoins(ctx context.Context, addr sdk.AccAddress) sdk.Coins {
	st := b.getStore(ctx)
	prefix := []byte(fmt.Sprintf("balance/%s/", addr.String()))
	iterator := st.Iterator(prefix, append(prefix, 0xFF))
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		denom := string(iterator.Key()[len(prefix):])
		amount, ok := sdkmath.NewIntFromString(string(iterator.Value()))
		if !ok || !amount.IsPositive() {
			continue
		}
		coins = coins.Add(sdk.NewCoin(denom, amount))
	}
	return coins
}

// SendCoins implements types.BankKeeper.
func (b StoreBankKeeper) SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error {
	st := b.getStore(ctx)
	for _, coin := range amt {
		from := b.GetBalance(ctx, fromAddr, coin.Denom).Amount
		if from.LT(coin.Amount) {
			return fmt.Errorf("insufficient funds: %s has %s%s, sending %s", fromAddr, from, coin.Denom, coin)
		}
		to := b.GetBalance(ctx, toAddr, coin.Denom).Amount
		st.Set(balanceKey(fromAddr, coin.Denom), []byte(from.Sub(coin.Amount).String()))
		st.Set(balanceKey(toAddr, coin.Denom), []byte(to.Add(coin.Amount).String()))
	}
	return nil
}

// MintCoins credits an account out of thin air. Test setup only.
func (b StoreBankKeeper) MintCoins(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) {
	st := b.getStore(ctx)
	for _, coin := range amt {
		existing := b.GetBalance(ctx, addr, coin.Denom).Amount
		st.Set(balanceKey(addr, coin.Denom), []byte(existing.Add(coin.Amount).String()))
	}
}

// AmmKeeper creates a test keeper for the AMM module with a store-backed
// bank keeper, both mounted on one in-memory multistore.
func AmmKeeper(t testing.TB) (*keeper.Keeper, StoreBankKeeper, sdk.Context) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankStoreKey := storetypes.NewKVStoreKey("testbank")

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankStoreKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	bankKeeper := StoreBankKeeper{storeKey: bankStoreKey}
	k := keeper.NewKeeper(storeKey, bankKeeper, TestAuthority)

	header := cmtproto.Header{Height: 1, Time: time.Unix(1_700_000_000, 0).UTC()}
	ctx := sdk.NewContext(stateStore, header, false, log.NewNopLogger())

	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesis()))

	return k, bankKeeper, ctx
}

// FundAccount mints coins to an account for test setup.
func FundAccount(t testing.TB, bk StoreBankKeeper, ctx sdk.Context, addr sdk.AccAddress, coins ...sdk.Coin) {
	t.Helper()
	bk.MintCoins(ctx, addr, sdk.NewCoins(coins...))
}

// SeedPool creates a pool and deposits the given initial reserves from a
// dedicated funder account, returning the pool id.
func SeedPool(t testing.TB, k *keeper.Keeper, bk StoreBankKeeper, ctx sdk.Context, denomA, denomB string, amountA, amountB sdkmath.Int) uint64 {
	t.Helper()

	funder := sdk.AccAddress("pool-seeder---------")
	bk.MintCoins(ctx, funder, sdk.NewCoins(sdk.NewCoin(denomA, amountA), sdk.NewCoin(denomB, amountB)))

	pool, err := k.GetOrCreatePool(ctx, denomA, denomB)
	require.NoError(t, err)

	amount0, amount1 := amountA, amountB
	if denomA != pool.Token0 {
		amount0, amount1 = amountB, amountA
	}
	_, err = k.AddLiquidity(ctx, funder, pool.Id, amount0, amount1, sdkmath.ZeroInt(), sdkmath.ZeroInt())
	require.NoError(t, err)

	return pool.Id
}
