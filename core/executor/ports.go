package executor

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/glacieros/lumen/core/state"
)

// SignatureVerifier checks a signature over a canonical digest against a
// raw public key. It is injected at construction time so the signing scheme
// stays swappable.
type SignatureVerifier interface {
	Verify(publicKey []byte, digest state.Digest, signature []byte) bool
}

// BridgeOracle verifies an external bridge deposit proof and emits
// withdrawal events on behalf of Deposit/Withdraw.
type BridgeOracle interface {
	VerifyDeposit(proof []byte, token state.Token, amount state.Amount, receiver state.AccountAddr) bool
	EmitWithdrawal(token state.Token, amount state.Amount, receiver string)
}

// Secp256k1Verifier verifies ECDSA signatures over secp256k1.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(publicKey []byte, digest state.Digest, signature []byte) bool {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], pub)
}

var _ SignatureVerifier = Secp256k1Verifier{}
