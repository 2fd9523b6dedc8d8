package keeper_test

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/surgeswap/surge/testutil/keeper"
	"github.com/surgeswap/surge/x/amm/keeper"
	"github.com/surgeswap/surge/x/amm/types"
)

func TestFlashLoanFee_RoundsUp(t *testing.T) {
	// 10000 at 30 bps = 30 exactly
	require.Equal(t, math.NewInt(30), keeper.FlashLoanFee(math.NewInt(10_000), 30))
	// 10001 at 30 bps = 30.003, rounds up to 31
	require.Equal(t, math.NewInt(31), keeper.FlashLoanFee(math.NewInt(10_001), 30))
	// Tiny loans still pay
	require.Equal(t, math.OneInt(), keeper.FlashLoanFee(math.OneInt(), 30))
}

func TestFlashLoan_RepaidWithFee(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	// Pre-fund the fee; the principal arrives with the loan
	keepertest.FundAccount(t, bk, ctx, borrower, sdk.NewCoin("uatom", math.NewInt(30)))

	pool, _ := k.GetPool(ctx, poolID)
	escrow := pool.EscrowAddress()

	var sawLoan sdk.Coin
	var sawFee math.Int
	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			sawLoan, sawFee = loan, fee
			// Borrower holds principal + pre-funded fee inside the callback
			require.Equal(t, math.NewInt(10_030), bk.GetBalance(cbCtx, borrower, "uatom").Amount)
			// Repay 10000 + 30
			repay := sdk.NewCoins(sdk.NewCoin("uatom", loan.Amount.Add(fee)))
			return bk.SendCoins(cbCtx, borrower, escrow, repay)
		})
	require.NoError(t, err)
	require.Equal(t, sdk.NewCoin("uatom", math.NewInt(10_000)), sawLoan)
	require.Equal(t, math.NewInt(30), sawFee)

	// Fee accrued to the reserve and the escrow actually holds it
	pool, _ = k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_030), pool.Reserve0)
	require.Equal(t, math.NewInt(100_030), bk.GetBalance(ctx, escrow, "uatom").Amount)
	require.True(t, bk.GetBalance(ctx, borrower, "uatom").Amount.IsZero())
}

func TestFlashLoan_UnderRepaymentRollsBack(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	keepertest.FundAccount(t, bk, ctx, borrower, sdk.NewCoin("uatom", math.NewInt(20)))

	pool, _ := k.GetPool(ctx, poolID)
	escrow := pool.EscrowAddress()

	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			// Repay principal plus only 20 of the 30 fee
			repay := sdk.NewCoins(sdk.NewCoin("uatom", math.NewInt(10_020)))
			return bk.SendCoins(cbCtx, borrower, escrow, repay)
		})
	require.ErrorIs(t, err, types.ErrInsufficientRepayment)

	// Everything the callback did was discarded
	require.Equal(t, math.NewInt(20), bk.GetBalance(ctx, borrower, "uatom").Amount)
	require.Equal(t, math.NewInt(100_000), bk.GetBalance(ctx, escrow, "uatom").Amount)
	pool, _ = k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_000), pool.Reserve0)
}

func TestFlashLoan_CallbackErrorRollsBack(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	bystander := testAddr("bystander")
	boom := errors.New("strategy failed")

	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			// A side effect that must not survive the rollback
			if err := bk.SendCoins(cbCtx, borrower, bystander, sdk.NewCoins(sdk.NewCoin("uatom", math.NewInt(5_000)))); err != nil {
				return err
			}
			return boom
		})
	require.ErrorIs(t, err, boom)
	require.True(t, bk.GetBalance(ctx, bystander, "uatom").Amount.IsZero())
}

func TestFlashLoan_CannotDrainReserve(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(100_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error { return nil })
	require.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestFlashLoan_ReentrancyBlocked(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			// Trading against the lending pool mid-loan must fail closed
			_, swapErr := k.Swap(cbCtx, borrower, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), borrower)
			return swapErr
		})
	require.ErrorIs(t, err, types.ErrReentrancy)
}

func TestFlashLoan_SyncBlockedDuringLoan(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	borrower := testAddr("borrower")
	err := k.FlashLoan(ctx, borrower, poolID, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			// Snapshotting the drained escrow mid-loan would poison both the
			// reserves and the price accumulators
			return k.Sync(cbCtx, poolID)
		})
	require.ErrorIs(t, err, types.ErrReentrancy)

	// Nothing about the pool moved
	pool, _ := k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_000), pool.Reserve0)
	require.Equal(t, math.NewInt(50_000), pool.Reserve1)
}

func TestFlashLoan_OtherPoolUsableDuringLoan(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	loanPool := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))
	otherPool := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uosmo", math.NewInt(100_000), math.NewInt(100_000))

	borrower := testAddr("borrower")
	// Covers the 1000 spent mid-loan on the other pool plus the 30 fee
	keepertest.FundAccount(t, bk, ctx, borrower, sdk.NewCoin("uatom", math.NewInt(1_030)))

	pool, _ := k.GetPool(ctx, loanPool)
	escrow := pool.EscrowAddress()

	err := k.FlashLoan(ctx, borrower, loanPool, "uatom", math.NewInt(10_000),
		func(cbCtx sdk.Context, loan sdk.Coin, fee math.Int) error {
			// Arbitrage elsewhere with the borrowed funds is fine
			if _, err := k.Swap(cbCtx, borrower, otherPool, "uatom", math.NewInt(1_000), math.ZeroInt(), borrower); err != nil {
				return err
			}
			repay := sdk.NewCoins(sdk.NewCoin("uatom", loan.Amount.Add(fee)))
			return bk.SendCoins(cbCtx, borrower, escrow, repay)
		})
	require.NoError(t, err)

	// The other pool's trade was committed along with the repayment
	other, _ := k.GetPool(ctx, otherPool)
	require.Equal(t, math.NewInt(101_000), other.Reserve0)
}
