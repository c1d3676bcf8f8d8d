package router

import "github.com/bitfsorg/librbf-go/chain"

var (
	// ErrInvalidRBFID indicates a deployment id different from the RBF nonce.
	ErrInvalidRBFID = chain.NewReason(chain.Sequencing, "router: invalid rbfId")

	// ErrInvalidVaultID indicates a deployment id different from the vault nonce.
	ErrInvalidVaultID = chain.NewReason(chain.Sequencing, "router: invalid vaultId")

	// ErrInvalidDeployer indicates the caller is not the declared deployer.
	ErrInvalidDeployer = chain.NewReason(chain.Unauthorized, "router: invalid deployer")

	// ErrInvalidThreshold indicates fewer signatures than the threshold.
	ErrInvalidThreshold = chain.NewReason(chain.Unauthorized, "router: invalid threshold")

	// ErrInvalidSigner indicates a bad, repeated or unlisted signature.
	ErrInvalidSigner = chain.NewReason(chain.Unauthorized, "router: invalid signer")

	// ErrEmptyWhiteList indicates an empty signer whitelist.
	ErrEmptyWhiteList = chain.NewReason(chain.Invalid, "router: whiteLists must not be empty")

	// ErrZeroThreshold indicates a zero signature threshold.
	ErrZeroThreshold = chain.NewReason(chain.Invalid, "router: threshold must not be zero")

	// ErrThresholdTooHigh indicates a threshold above the number of signers.
	ErrThresholdTooHigh = chain.NewReason(chain.Invalid, "router: threshold exceeds signers")

	// ErrNotOwner indicates an owner-only call from another account.
	ErrNotOwner = chain.NewReason(chain.Unauthorized, "router: caller is not the owner")

	// ErrUnknownAsset indicates an asset that was never registered.
	ErrUnknownAsset = chain.NewReason(chain.Invalid, "router: unknown asset")

	// ErrUnknownRBF indicates a vault bound to an instrument this router did not deploy.
	ErrUnknownRBF = chain.NewReason(chain.Invalid, "router: unknown rbf")

	// ErrInvalidParams indicates a deployment parameter outside its valid range.
	ErrInvalidParams = chain.NewReason(chain.Invalid, "router: invalid params")
)

// ErrNotRBFManager indicates a vault deployment by an account that does not
// manage the instrument.
var ErrNotRBFManager = chain.NewReason(chain.Unauthorized, "router: caller is not the rbf manager")
