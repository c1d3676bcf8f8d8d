package router

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/store"
	"github.com/bitfsorg/librbf-go/token"
	"github.com/bitfsorg/librbf-go/vault"
)

func makeAddr(seed byte) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func pow10(n uint64) *uint256.Int { return new(uint256.Int).Exp(u(10), u(n)) }

const t0 = 1_700_000_000

var (
	routerAddr = makeAddr(0x10)
	owner      = makeAddr(0x11)
	deployer   = makeAddr(0x12)
	issuer     = makeAddr(0x01)
	manager    = makeAddr(0x02)
	guardian   = makeAddr(0x03)
	setter     = makeAddr(0x04)
	feeder     = makeAddr(0x05)
	feeRecv    = makeAddr(0x06)
	custody    = makeAddr(0x07)
	stranger   = makeAddr(0x0F)
	investor   = makeAddr(0xA1)
)

type fixture struct {
	env    *chain.Env
	clock  *chain.ManualClock
	asset  *token.Token
	keys   []*ec.PrivateKey
	router *Router
}

func newKeys(t *testing.T, n int) []*ec.PrivateKey {
	t.Helper()
	keys := make([]*ec.PrivateKey, n)
	for i := range keys {
		k, err := ec.NewPrivateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	return keys
}

func addrsOf(keys []*ec.PrivateKey) []common.Address {
	out := make([]common.Address, len(keys))
	for i, k := range keys {
		out[i] = SignerAddress(k.PubKey())
	}
	return out
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := chain.NewManualClock(time.Unix(t0, 0))
	env := chain.NewEnv(clock)
	keys := newKeys(t, 3)
	r, err := New(env, routerAddr, owner, addrsOf(keys), 2, opts...)
	require.NoError(t, err)
	f := &fixture{
		env:    env,
		clock:  clock,
		asset:  token.New(makeAddr(0x70), "Tether USD", "USDT", 6, issuer),
		keys:   keys,
		router: r,
	}
	require.NoError(t, env.Execute(owner, "register", func(tx *chain.Tx) error {
		return r.RegisterAsset(tx, f.asset)
	}))
	return f
}

func (f *fixture) rbfData(id uint64) *RBFDeployData {
	return &RBFDeployData{
		ID: id, Name: "RBF", Symbol: "RBF", Decimals: 18,
		Asset: f.asset.Address(), DepositTreasury: custody,
		Manager: manager, Guardian: guardian, MintAmountSetter: setter,
		PriceFeeder: feeder, PriceDecimals: 8, Deployer: deployer,
	}
}

func (f *fixture) sign(t *testing.T, data *RBFDeployData, keys ...*ec.PrivateKey) []Signature {
	t.Helper()
	digest, err := data.Digest(routerAddr)
	require.NoError(t, err)
	sigs := make([]Signature, 0, len(keys))
	for _, k := range keys {
		s, err := Sign(k, digest)
		require.NoError(t, err)
		sigs = append(sigs, s)
	}
	return sigs
}

func (f *fixture) deployRBF(caller common.Address, data *RBFDeployData, sigs []Signature) error {
	return f.env.Execute(caller, "deployRBF", func(tx *chain.Tx) error {
		_, err := f.router.DeployRBF(tx, data, sigs)
		return err
	})
}

func (f *fixture) vaultData(id uint64, rbfAddr common.Address) *VaultDeployData {
	start := time.Unix(t0+100, 0)
	return &VaultDeployData{
		ID: id, Name: "Vault", Symbol: "VLT", Decimals: 18, RBF: rbfAddr,
		SubStartTime: start, SubEndTime: start.Add(24 * time.Hour), Duration: 30 * 24 * time.Hour,
		FundThreshold: 3000, MinDepositAmount: new(uint256.Int).Mul(u(10), pow10(6)), ManageFee: 100,
		MaxSupply: new(uint256.Int).Mul(u(10_000), pow10(18)), FinancePrice: u(100_000_000),
		Manager: manager, FeeReceiver: feeRecv, Guardian: guardian,
		WhiteList: []common.Address{investor},
	}
}

func (f *fixture) deployVault(caller common.Address, data *VaultDeployData) error {
	return f.env.Execute(caller, "deployVault", func(tx *chain.Tx) error {
		_, err := f.router.DeployVault(tx, data)
		return err
	})
}

// --- Construction and admin ---

func TestNew_SignerValidation(t *testing.T) {
	env := chain.NewEnv(chain.NewManualClock(time.Unix(t0, 0)))
	a, b := makeAddr(0x31), makeAddr(0x32)
	tests := []struct {
		name      string
		signers   []common.Address
		threshold int
		want      error
	}{
		{"empty", nil, 1, ErrEmptyWhiteList},
		{"zero threshold", []common.Address{a}, 0, ErrZeroThreshold},
		{"threshold above signers", []common.Address{a}, 2, ErrThresholdTooHigh},
		{"duplicate signer", []common.Address{a, a}, 1, ErrInvalidParams},
		{"zero signer", []common.Address{a, {}}, 1, ErrInvalidParams},
		{"ok", []common.Address{a, b}, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(env, routerAddr, owner, tt.signers, tt.threshold)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetWhiteListsAndThreshold(t *testing.T) {
	f := setup(t)
	next := []common.Address{makeAddr(0x41)}

	err := f.env.Execute(stranger, "set", func(tx *chain.Tx) error {
		return f.router.SetWhiteListsAndThreshold(tx, next, 1)
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	err = f.env.Execute(owner, "set", func(tx *chain.Tx) error {
		return f.router.SetWhiteListsAndThreshold(tx, nil, 1)
	})
	assert.ErrorIs(t, err, ErrEmptyWhiteList)
	assert.Equal(t, 2, f.router.Threshold())

	require.NoError(t, f.env.Execute(owner, "set", func(tx *chain.Tx) error {
		return f.router.SetWhiteListsAndThreshold(tx, next, 1)
	}))
	assert.Equal(t, next, f.router.Signers())
	assert.Equal(t, 1, f.router.Threshold())
	assert.Len(t, f.env.EventsNamed(EventSignersSet), 1)
}

func TestRegisterAsset_OwnerOnly(t *testing.T) {
	f := setup(t)
	other := token.New(makeAddr(0x72), "USD Coin", "USDC", 6, issuer)
	err := f.env.Execute(stranger, "register", func(tx *chain.Tx) error {
		return f.router.RegisterAsset(tx, other)
	})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, err, chain.Unauthorized)
}

// --- Signatures ---

func TestSignerAddress_Deterministic(t *testing.T) {
	k := newKeys(t, 1)[0]
	pub, err := ec.PublicKeyFromBytes(k.PubKey().Compressed())
	require.NoError(t, err)
	assert.Equal(t, SignerAddress(k.PubKey()), SignerAddress(pub))
}

func TestDigest_BindsRouterAndFields(t *testing.T) {
	f := setup(t)
	d := f.rbfData(0)
	base, err := d.Digest(routerAddr)
	require.NoError(t, err)

	other, err := d.Digest(makeAddr(0x99))
	require.NoError(t, err)
	assert.NotEqual(t, base, other)

	d.BoundedMint = true
	changed, err := d.Digest(routerAddr)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
	assert.Len(t, base, 32)
}

func TestDeployRBF_Rejections(t *testing.T) {
	f := setup(t)
	outsider := newKeys(t, 1)[0]

	tests := []struct {
		name   string
		caller common.Address
		data   func() *RBFDeployData
		sigs   func(d *RBFDeployData) []Signature
		want   error
	}{
		{
			name:   "wrong id",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(1) },
			sigs:   func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], f.keys[1]) },
			want:   ErrInvalidRBFID,
		},
		{
			name:   "wrong deployer",
			caller: stranger,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs:   func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], f.keys[1]) },
			want:   ErrInvalidDeployer,
		},
		{
			name:   "below threshold",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs:   func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0]) },
			want:   ErrInvalidThreshold,
		},
		{
			name:   "repeated signer",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs:   func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], f.keys[0]) },
			want:   ErrInvalidSigner,
		},
		{
			name:   "unlisted signer",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs:   func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], outsider) },
			want:   ErrInvalidSigner,
		},
		{
			name:   "signature over other data",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs: func(d *RBFDeployData) []Signature {
				other := *d
				other.Name = "Other"
				return f.sign(t, &other, f.keys[0], f.keys[1])
			},
			want: ErrInvalidSigner,
		},
		{
			name:   "malformed signature",
			caller: deployer,
			data:   func() *RBFDeployData { return f.rbfData(0) },
			sigs: func(d *RBFDeployData) []Signature {
				sigs := f.sign(t, d, f.keys[0], f.keys[1])
				sigs[1].Sig = []byte{0x30, 0x01}
				return sigs
			},
			want: ErrInvalidSigner,
		},
		{
			name:   "unknown asset",
			caller: deployer,
			data: func() *RBFDeployData {
				d := f.rbfData(0)
				d.Asset = makeAddr(0x7F)
				return d
			},
			sigs: func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], f.keys[1]) },
			want: ErrUnknownAsset,
		},
		{
			name:   "zero manager",
			caller: deployer,
			data: func() *RBFDeployData {
				d := f.rbfData(0)
				d.Manager = common.Address{}
				return d
			},
			sigs: func(d *RBFDeployData) []Signature { return f.sign(t, d, f.keys[0], f.keys[1]) },
			want: ErrInvalidParams,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.data()
			err := f.deployRBF(tt.caller, d, tt.sigs(d))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, uint64(0), f.router.RBFNonce())
		})
	}
}

func TestDeployRBF_CreatesFeedEscrowAndInstrument(t *testing.T) {
	f := setup(t)
	d := f.rbfData(0)
	require.NoError(t, f.deployRBF(deployer, d, f.sign(t, d, f.keys[2], f.keys[0])))

	assert.Equal(t, uint64(1), f.router.RBFNonce())
	inst, ok := f.router.RBF(0)
	require.True(t, ok)
	feed, ok := f.router.Feed(0)
	require.True(t, ok)

	assert.Equal(t, chain.DeriveAddress(kindRBF, 0, routerAddr.Bytes()), inst.Address())
	assert.Equal(t, chain.DeriveAddress(kindFeed, 0, routerAddr.Bytes()), feed.Address())
	escrow := chain.DeriveAddress(kindRBFEscrow, 0, routerAddr.Bytes())
	assert.Equal(t, escrow, inst.DividendTreasury())
	assert.True(t, f.asset.Allowance(escrow, inst.Address()).Eq(token.MaxAllowance()))
	assert.Equal(t, uint8(8), feed.Decimals())
	assert.Len(t, f.env.EventsNamed(EventRBFDeployed), 1)

	// Replaying the same signed payload fails on the nonce.
	err := f.deployRBF(deployer, d, f.sign(t, d, f.keys[0], f.keys[1]))
	assert.ErrorIs(t, err, ErrInvalidRBFID)

	_, ok = f.router.RBF(1)
	assert.False(t, ok)
}

func TestDeployRBF_ThresholdChangeAppliesToNextDeploy(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.env.Execute(owner, "set", func(tx *chain.Tx) error {
		return f.router.SetWhiteListsAndThreshold(tx, addrsOf(f.keys), 3)
	}))
	d := f.rbfData(0)
	err := f.deployRBF(deployer, d, f.sign(t, d, f.keys[0], f.keys[1]))
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	require.NoError(t, f.deployRBF(deployer, d, f.sign(t, d, f.keys...)))
}

// --- Vault deployment ---

func (f *fixture) deployedRBF(t *testing.T) common.Address {
	t.Helper()
	d := f.rbfData(f.router.RBFNonce())
	require.NoError(t, f.deployRBF(deployer, d, f.sign(t, d, f.keys[0], f.keys[1])))
	inst, ok := f.router.RBF(d.ID)
	require.True(t, ok)
	return inst.Address()
}

func TestDeployVault_Validation(t *testing.T) {
	f := setup(t)
	rbfAddr := f.deployedRBF(t)

	tests := []struct {
		name string
		mod  func(d *VaultDeployData)
		want error
	}{
		{"wrong id", func(d *VaultDeployData) { d.ID = 5 }, ErrInvalidVaultID},
		{"unknown rbf", func(d *VaultDeployData) { d.RBF = makeAddr(0x55) }, ErrUnknownRBF},
		{"zero fee receiver", func(d *VaultDeployData) { d.FeeReceiver = common.Address{} }, ErrInvalidParams},
		{"empty window", func(d *VaultDeployData) { d.SubEndTime = d.SubStartTime }, ErrInvalidParams},
		{"zero duration", func(d *VaultDeployData) { d.Duration = 0 }, ErrInvalidParams},
		{"zero threshold", func(d *VaultDeployData) { d.FundThreshold = 0 }, ErrInvalidParams},
		{"threshold above 100%", func(d *VaultDeployData) { d.FundThreshold = 10001 }, ErrInvalidParams},
		{"zero min deposit", func(d *VaultDeployData) { d.MinDepositAmount = u(0) }, ErrInvalidParams},
		{"fee above 100%", func(d *VaultDeployData) { d.ManageFee = 10001 }, ErrInvalidParams},
		{"empty whitelist", func(d *VaultDeployData) { d.WhiteList = nil }, ErrInvalidParams},
		{"whitelist too long", func(d *VaultDeployData) {
			d.WhiteList = make([]common.Address, maxWhiteList+1)
		}, ErrInvalidParams},
		{"zero max supply", func(d *VaultDeployData) { d.MaxSupply = u(0) }, ErrInvalidParams},
		{"nil finance price", func(d *VaultDeployData) { d.FinancePrice = nil }, ErrInvalidParams},
		{"decimals below asset", func(d *VaultDeployData) { d.Decimals = 2 }, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := f.vaultData(0, rbfAddr)
			tt.mod(d)
			assert.ErrorIs(t, f.deployVault(manager, d), tt.want)
			assert.Equal(t, uint64(0), f.router.VaultNonce())
		})
	}
}

func TestDeployVault_RequiresRBFManager(t *testing.T) {
	f := setup(t)
	rbfAddr := f.deployedRBF(t)
	err := f.deployVault(stranger, f.vaultData(0, rbfAddr))
	assert.ErrorIs(t, err, ErrNotRBFManager)
	assert.ErrorIs(t, err, chain.Unauthorized)
}

func TestDeployVault_EndToEnd(t *testing.T) {
	f := setup(t)
	rbfAddr := f.deployedRBF(t)
	require.NoError(t, f.deployVault(manager, f.vaultData(0, rbfAddr)))

	v, ok := f.router.Vault(0)
	require.True(t, ok)
	inst, _ := f.router.RBF(0)
	escrow := chain.DeriveAddress(kindVaultEscrow, 0, routerAddr.Bytes())
	assert.Equal(t, escrow, v.DividendTreasury())
	assert.Equal(t, rbfAddr, v.Instrument())
	assert.True(t, f.asset.Allowance(escrow, v.Address()).Eq(token.MaxAllowance()))
	assert.Equal(t, uint64(1), f.router.VaultNonce())

	// The manager binds the vault, then a subscription runs through the instrument.
	require.NoError(t, f.env.Execute(manager, "bind", func(tx *chain.Tx) error { return inst.SetVault(tx, v) }))
	amount := new(uint256.Int).Mul(u(5_000), pow10(6))
	require.NoError(t, f.env.Execute(issuer, "mint", func(tx *chain.Tx) error {
		return f.asset.Mint(tx, investor, new(uint256.Int).Mul(amount, u(2)))
	}))

	f.clock.Set(time.Unix(t0+100, 0))
	require.NoError(t, f.env.Execute(investor, "deposit", func(tx *chain.Tx) error {
		if err := f.asset.Approve(tx, v.Address(), token.MaxAllowance()); err != nil {
			return err
		}
		return v.Deposit(tx, amount)
	}))
	assert.Equal(t, vault.Subscribing, v.Phase(f.clock.Now()))

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.env.Execute(manager, "strategy", func(tx *chain.Tx) error { return v.ExecStrategy(tx) }))
	assert.True(t, f.asset.BalanceOf(custody).Eq(amount))
	assert.True(t, v.ManageFeeBalance().Eq(new(uint256.Int).Mul(u(50), pow10(6))))
	assert.True(t, inst.DepositAmount().Eq(amount))
}

// --- Checkpoints ---

func TestCheckpoint_NoStore(t *testing.T) {
	f := setup(t)
	_, err := f.router.Checkpoint(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestCheckpoint_PersistsSnapshotsAndPrices(t *testing.T) {
	bs, err := store.OpenBoltStore(filepath.Join(t.TempDir(), "rbf.db"))
	require.NoError(t, err)
	defer bs.Close()

	f := setup(t, WithStore(bs.Checkpoints(), bs.Prices()))
	rbfAddr := f.deployedRBF(t)
	require.NoError(t, f.deployVault(manager, f.vaultData(0, rbfAddr)))

	feed, _ := f.router.Feed(0)
	require.NoError(t, f.env.Execute(feeder, "price", func(tx *chain.Tx) error {
		return feed.AddPrice(tx, u(100_000_000), time.Unix(t0, 0))
	}))

	ctx := context.Background()
	cp, err := f.router.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.env.Height(), cp.Height)
	require.Len(t, cp.RBFs, 1)
	require.Len(t, cp.Vaults, 1)
	assert.Equal(t, rbfAddr, cp.RBFs[0].Address)
	assert.Equal(t, vault.Pending.String(), cp.Vaults[0].Phase)

	got, err := bs.Checkpoints().GetLatest()
	require.NoError(t, err)
	assert.Equal(t, cp.Height, got.Height)

	// A second round is stored; the first is not duplicated.
	require.NoError(t, f.env.Execute(feeder, "price", func(tx *chain.Tx) error {
		return feed.AddPrice(tx, u(101_000_000), time.Unix(t0+60, 0))
	}))
	_, err = f.router.Checkpoint(ctx)
	require.NoError(t, err)

	prices, err := bs.Prices().GetPrices(feed.Address())
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "101000000", prices[1].Price)

	n, err := bs.Checkpoints().CountCheckpoints()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestCheckpoint_CanceledContext(t *testing.T) {
	f := setup(t, WithStore(store.NewMemCheckpointStore(), store.NewMemPriceStore()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.router.Checkpoint(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
