package node

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/config"
	"github.com/bitfsorg/librbf-go/keyring"
	"github.com/bitfsorg/librbf-go/router"
	"github.com/bitfsorg/librbf-go/token"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testOffering() *config.Offering {
	return &config.Offering{
		RBF: config.RBFTemplate{
			Name: "Revenue Note A", Symbol: "RNA", Decimals: 18,
			Asset:            "0x7000000000000000000000000000000000000000",
			DepositTreasury:  "0x0707070707070707070707070707070707070707",
			Manager:          "0x0202020202020202020202020202020202020202",
			Guardian:         "0x0303030303030303030303030303030303030303",
			MintAmountSetter: "0x0404040404040404040404040404040404040404",
			PriceFeeder:      "0x0505050505050505050505050505050505050505",
			PriceDecimals:    8,
			Deployer:         "0x1212121212121212121212121212121212121212",
		},
		Vault: config.VaultTemplate{
			Name: "Revenue Note A Vault", Symbol: "vRNA", Decimals: 18,
			SubStartTime:     "2026-01-01T00:00:00Z",
			SubEndTime:       "2026-01-08T00:00:00Z",
			Duration:         "720h",
			FundThreshold:    3000,
			MinDepositAmount: "10000000",
			ManageFee:        100,
			MaxSupply:        "10000000000000000000000",
			FinancePrice:     "100000000",
			Manager:          "0x0202020202020202020202020202020202020202",
			FeeReceiver:      "0x0606060606060606060606060606060606060606",
			Guardian:         "0x0303030303030303030303030303030303030303",
			WhiteList:        []string{"0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"},
		},
	}
}

// deployNode opens a node whose router whitelists the first three keyring keys.
func deployNode(t *testing.T) (*Node, *keyring.Keyring) {
	t.Helper()
	seed, err := keyring.SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	kr, err := keyring.New(seed, "testnet", 0)
	require.NoError(t, err)
	signers, err := kr.Signers(3)
	require.NoError(t, err)

	g := Governance{Router: gov.Router, Owner: gov.Owner, Signers: signers, Threshold: 2}
	n, err := Open(testConfig(t), g, chain.NewManualClock(time.Unix(1_700_000_000, 0)))
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })

	asset := token.New(common.HexToAddress("0x7000000000000000000000000000000000000000"), "Tether USD", "USDT", 6, common.Address{0x01})
	require.NoError(t, n.Env.Execute(g.Owner, "registerAsset", func(tx *chain.Tx) error {
		return n.Router.RegisterAsset(tx, asset)
	}))
	return n, kr
}

func TestDeploy_Offering(t *testing.T) {
	n, kr := deployNode(t)

	inst, v, err := n.Deploy(testOffering(), kr, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n.Router.RBFNonce())
	assert.Equal(t, uint64(1), n.Router.VaultNonce())
	assert.Equal(t, inst.Address(), v.Instrument())

	got, ok := n.Router.RBF(0)
	require.True(t, ok)
	assert.Same(t, inst, got)

	second, _, err := n.Deploy(testOffering(), kr, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.ID())
	assert.NotEqual(t, inst.Address(), second.Address())
}

func TestDeploy_RollsBackAsOneCall(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *config.Offering)
		indices []uint32
		wantErr error
	}{
		{"below threshold", func(*config.Offering) {}, []uint32{0}, router.ErrInvalidThreshold},
		{"key outside whitelist", func(*config.Offering) {}, []uint32{0, 5}, router.ErrInvalidSigner},
		{"vault decimals below asset", func(o *config.Offering) { o.Vault.Decimals = 4 }, []uint32{0, 1}, router.ErrInvalidParams},
		{"empty vault whitelist", func(o *config.Offering) { o.Vault.WhiteList = nil }, []uint32{0, 1}, router.ErrInvalidParams},
		{"malformed vault template", func(o *config.Offering) { o.Vault.Duration = "a month" }, []uint32{0, 1}, config.ErrInvalidOffering},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, kr := deployNode(t)
			o := testOffering()
			tt.modify(o)

			_, _, err := n.Deploy(o, kr, tt.indices...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, n.Router.RBFNonce())
			assert.Zero(t, n.Router.VaultNonce())
			_, ok := n.Router.RBF(0)
			assert.False(t, ok)
		})
	}
}
