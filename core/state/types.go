// Package state defines the node's typed tables: accounts, nodes,
// committees, per-epoch served-usage records, services, protocol parameters
// and ledger metadata. It contains schema only, no execution logic.
package state

import (
	"encoding/hex"
	"errors"
)

// NodeKeySize is the opaque byte length of a node's signing key.
const NodeKeySize = 96

// AccountAddrSize is the opaque byte length of an account owner identifier.
const AccountAddrSize = 32

// DigestSize is the byte length of a Blake3/canonical hash.
const DigestSize = 32

// NodeKey is a 96-byte opaque identifier of a node's signing key.
type NodeKey [NodeKeySize]byte

func (k NodeKey) String() string { return hex.EncodeToString(k[:]) }

// ParseNodeKey decodes a hex-encoded NodeKey.
func ParseNodeKey(s string) (NodeKey, error) {
	var k NodeKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, err
	}
	if len(b) != NodeKeySize {
		return k, errors.New("state: node key must be 96 bytes")
	}
	copy(k[:], b)
	return k, nil
}

// AccountAddr is a 32-byte opaque identifier of an account owner.
type AccountAddr [AccountAddrSize]byte

func (a AccountAddr) String() string { return hex.EncodeToString(a[:]) }

// ParseAccountAddr decodes a hex-encoded AccountAddr.
func ParseAccountAddr(s string) (AccountAddr, error) {
	var a AccountAddr
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(b) != AccountAddrSize {
		return a, errors.New("state: account address must be 32 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// ProtocolAddr is the well-known zero-byte sentinel account that receives
// the protocol's share of epoch rewards and any rounding dust. It is an
// ordinary AccountAddr: every query method works on it unmodified.
var ProtocolAddr AccountAddr

// Epoch is a monotone nonnegative integer identifying a committee window.
type Epoch uint64

// Nonce is a per-sender strictly increasing counter.
type Nonce uint64

// Digest is a 32-byte hash, canonically the Blake3 hash of a payload.
type Digest [DigestSize]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ServiceID identifies a service descriptor referenced by pods and prices.
type ServiceID uint32

// Token distinguishes the two balance denominations tracked per account.
type Token uint8

const (
	TokenFLK Token = iota
	TokenUSDC
)
