// Package executor implements the deterministic transaction-execution
// engine: a closed set of update methods applied against state through an
// atomic per-block overlay, plus the node's read-only query surface.
package executor

import "github.com/glacieros/lumen/core/state"

// Method is the closed set of update operations an UpdateRequest may
// carry. Each concrete type is a plain data payload; dispatch happens by
// type switch in Executor.dispatch.
type Method interface{ isMethod() }

type Deposit struct {
	Proof  []byte
	Token  state.Token
	Amount state.Amount
}

type Withdraw struct {
	Amount   state.Amount
	Token    state.Token
	Receiver string
}

type Stake struct {
	Amount               state.Amount
	NodeKey              state.NodeKey
	NodeNetworkKey       *string
	NodeDomain           *string
	WorkerPublicKey      *string
	WorkerDomain         *string
	WorkerMempoolAddress *string
}

type StakeLock struct {
	Node      state.NodeKey
	LockedFor uint64 // epochs
}

type Unstake struct {
	Amount state.Amount
	Node   state.NodeKey
}

type WithdrawUnstaked struct {
	Node      state.NodeKey
	Recipient *state.AccountAddr
}

type SubmitDeliveryAcknowledgmentAggregation struct {
	Commodity state.Amount
	ServiceID state.ServiceID
	Proofs    []byte
	Metadata  []byte
}

type SubmitReputationMeasurements struct {
	Peer         state.NodeKey
	Measurements []byte
}

type ChangeEpoch struct {
	Epoch state.Epoch
}

type AddService struct {
	ID         state.ServiceID
	Descriptor []byte
}

type RemoveService struct {
	ID state.ServiceID
}

type Slash struct {
	Node   state.NodeKey
	Amount state.Amount
}

func (Deposit) isMethod()                                 {}
func (Withdraw) isMethod()                                {}
func (Stake) isMethod()                                   {}
func (StakeLock) isMethod()                               {}
func (Unstake) isMethod()                                 {}
func (WithdrawUnstaked) isMethod()                        {}
func (SubmitDeliveryAcknowledgmentAggregation) isMethod() {}
func (SubmitReputationMeasurements) isMethod()            {}
func (ChangeEpoch) isMethod()                             {}
func (AddService) isMethod()                              {}
func (RemoveService) isMethod()                           {}
func (Slash) isMethod()                                   {}

// Payload is the canonically-digested portion of an UpdateRequest: the
// sender's claimed nonce plus the method to dispatch.
type Payload struct {
	Nonce  state.Nonce
	Method Method
}

// Sender identifies who an UpdateRequest is from: either an account owner or
// a registered node, distinguished by which field is non-nil. Exactly one
// is expected to be set; the OnlyAccountOwner/OnlyNode checks only require
// the field a method needs, and nonce handling uses Account when both are
// set.
type Sender struct {
	Account *state.AccountAddr
	Node    *state.NodeKey
}

// UpdateRequest is the executor's public input. SignerPublicKey is the raw
// key material the signature verifies against; how it maps to Sender's
// opaque AccountAddr/NodeKey identity is a key-management concern settled
// outside the execution core.
type UpdateRequest struct {
	Sender          Sender
	SignerPublicKey []byte
	Signature       []byte
	Payload         Payload
}

// ErrorKind is the closed revert taxonomy of the execution engine.
type ErrorKind int

const (
	_ ErrorKind = iota
	InvalidSignature
	InvalidNonce
	InsufficientBalance
	InsufficientNodeDetails
	InvalidInternetAddress
	InvalidProof
	NodeDoesNotExist
	NotNodeOwner
	OnlyAccountOwner
	OnlyNode
	NotCommitteeMember
	AlreadySignaled
	NoLockedTokens
	TokensLocked
	LockedTokensUnstakeForbidden
	EpochAlreadyChanged
	NotYetReady
)

var errorKindNames = map[ErrorKind]string{
	InvalidSignature:             "InvalidSignature",
	InvalidNonce:                 "InvalidNonce",
	InsufficientBalance:          "InsufficientBalance",
	InsufficientNodeDetails:      "InsufficientNodeDetails",
	InvalidInternetAddress:       "InvalidInternetAddress",
	InvalidProof:                 "InvalidProof",
	NodeDoesNotExist:             "NodeDoesNotExist",
	NotNodeOwner:                 "NotNodeOwner",
	OnlyAccountOwner:             "OnlyAccountOwner",
	OnlyNode:                     "OnlyNode",
	NotCommitteeMember:           "NotCommitteeMember",
	AlreadySignaled:              "AlreadySignaled",
	NoLockedTokens:               "NoLockedTokens",
	TokensLocked:                 "TokensLocked",
	LockedTokensUnstakeForbidden: "LockedTokensUnstakeForbidden",
	EpochAlreadyChanged:          "EpochAlreadyChanged",
	NotYetReady:                  "NotYetReady",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// revert is the internal sentinel error carrying a domain-level ErrorKind;
// it never escapes ExecuteBlock as a Go error, only as TransactionResponse.
type revert struct{ kind ErrorKind }

func (r *revert) Error() string { return "revert: " + r.kind.String() }

func Revert(kind ErrorKind) error { return &revert{kind: kind} }

func asRevert(err error) (ErrorKind, bool) {
	r, ok := err.(*revert)
	if !ok {
		return 0, false
	}
	return r.kind, true
}

// ExecutionData carries the method-specific result of a successful
// transaction. It is intentionally sparse: most methods return no data.
type ExecutionData struct {
	ChangeEpoch bool
}

// TransactionResponse is exactly one of Success or Revert.
type TransactionResponse struct {
	Success *ExecutionData
	Revert  *ErrorKind
}

func success(d ExecutionData) TransactionResponse {
	return TransactionResponse{Success: &d}
}

func revertResponse(kind ErrorKind) TransactionResponse {
	return TransactionResponse{Revert: &kind}
}

// Block is one ordered batch of transactions delivered by the consensus
// collaborator.
type Block struct {
	Transactions []UpdateRequest
}

// BlockExecutionResponse is returned to the consensus collaborator after a
// block is executed: one receipt per transaction, plus whether any
// transaction in the block triggered an epoch transition.
type BlockExecutionResponse struct {
	Receipts    []TransactionResponse
	ChangeEpoch bool
}
