package executor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/glacieros/lumen/core/epoch"
	"github.com/glacieros/lumen/core/state"
	"github.com/glacieros/lumen/core/tables"
)

// Executor applies blocks of UpdateRequests against a table backend inside
// one atomic scope per block. Between ExecuteBlock calls it keeps
// only its metrics registry and the hot-account cache; no other state
// carries across blocks.
type Executor struct {
	backend   tables.Committer
	verifier  SignatureVerifier
	oracle    BridgeOracle
	logger    *logrus.Logger
	authority AuthorityCheck
	metrics   *metrics
	accounts  *lru.Cache[state.AccountAddr, state.AccountInfo]
}

// AuthorityCheck reports whether addr is recognised as a governance
// authority, consulted by AddService/RemoveService/Slash. The default
// implementation reads the Authority table.
type AuthorityCheck func(s *state.State, addr state.AccountAddr) bool

func tableAuthority(s *state.State, addr state.AccountAddr) bool {
	list, _ := s.Authority.Get(struct{}{})
	return list.Contains(addr)
}

// New builds an Executor bound to backend, the durable (non-overlaid)
// storage layer. Each ExecuteBlock wraps backend in a fresh Overlay.
func New(backend tables.Committer, verifier SignatureVerifier, oracle BridgeOracle, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Executor{
		backend:   backend,
		verifier:  verifier,
		oracle:    oracle,
		logger:    logger,
		authority: tableAuthority,
		metrics:   newMetrics(),
		accounts:  newAccountCache(),
	}
}

// ExecuteBlock runs every transaction in b serially against one atomic
// scope, then commits. A commit failure is fatal and the whole block's
// writes are discarded.
func (e *Executor) ExecuteBlock(b Block) (BlockExecutionResponse, error) {
	overlay := tables.NewOverlay(e.backend)
	s := state.New(overlay)
	ctrl := epoch.New(s, e.logger)

	resp := BlockExecutionResponse{Receipts: make([]TransactionResponse, 0, len(b.Transactions))}

	for _, tx := range b.Transactions {
		txResp, changed := e.executeOne(s, ctrl, tx)
		e.metrics.observe(txResp)
		resp.Receipts = append(resp.Receipts, txResp)
		if changed {
			resp.ChangeEpoch = true
			// Reward distribution credits accounts through the State
			// directly, so cached rows may now be stale.
			e.accounts.Purge()
		}
	}

	if err := overlay.Commit(); err != nil {
		e.metrics.commitFailures.Inc()
		// The cache may hold entries this aborted overlay never persisted;
		// drop them rather than risk serving writes that were rolled back.
		e.accounts.Purge()
		return BlockExecutionResponse{}, fmt.Errorf("executor: commit block: %w", err)
	}
	return resp, nil
}

// executeOne runs a single transaction: signature check, nonce check,
// dispatch, then the unconditional nonce bump on any outcome past those two
// gates.
func (e *Executor) executeOne(s *state.State, ctrl *epoch.Controller, tx UpdateRequest) (TransactionResponse, bool) {
	digest := CanonicalDigest(tx.Payload)
	if !e.verifier.Verify(tx.SignerPublicKey, digest, tx.Signature) {
		return revertResponse(InvalidSignature), false
	}

	senderAddr, isAccount := tx.Sender.Account, tx.Sender.Account != nil
	var currentNonce state.Nonce
	if isAccount {
		currentNonce = e.getAccount(s, *senderAddr).Nonce
	} else if tx.Sender.Node != nil {
		info, _ := s.Nodes.Get(*tx.Sender.Node)
		currentNonce = info.Nonce
	}

	if tx.Payload.Nonce != currentNonce+1 {
		return revertResponse(InvalidNonce), false
	}

	data, dispatchErr := e.dispatch(s, ctrl, tx)

	e.bumpNonce(s, tx)

	if dispatchErr != nil {
		kind, ok := asRevert(dispatchErr)
		if !ok {
			// Handlers only ever return Revert(kind); anything else is a
			// programming error, not a reachable runtime condition.
			panic(fmt.Sprintf("executor: unhandled dispatch error: %v", dispatchErr))
		}
		return revertResponse(kind), false
	}
	return success(data), data.ChangeEpoch
}

func (e *Executor) bumpNonce(s *state.State, tx UpdateRequest) {
	if tx.Sender.Account != nil {
		acct := e.getAccount(s, *tx.Sender.Account)
		acct.Nonce++
		e.setAccount(s, *tx.Sender.Account, acct)
		return
	}
	if tx.Sender.Node != nil {
		info, ok := s.Nodes.Get(*tx.Sender.Node)
		if ok {
			info.Nonce++
			s.Nodes.Set(*tx.Sender.Node, info)
		}
	}
}
