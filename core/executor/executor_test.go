package executor

import (
	"testing"

	"github.com/glacieros/lumen/core/state"
	"github.com/glacieros/lumen/core/tables"
)

type alwaysValidVerifier struct{}

func (alwaysValidVerifier) Verify(publicKey []byte, digest state.Digest, signature []byte) bool {
	return true
}

type fakeOracle struct{ approve bool }

func (f fakeOracle) VerifyDeposit(proof []byte, token state.Token, amount state.Amount, receiver state.AccountAddr) bool {
	return f.approve
}

func (f fakeOracle) EmitWithdrawal(token state.Token, amount state.Amount, receiver string) {}

func newTestExecutor() (*Executor, *state.State, tables.Committer) {
	backend := tables.NewMemoryBackend()
	ex := New(backend, alwaysValidVerifier{}, fakeOracle{approve: true}, nil)
	return ex, state.New(backend), backend
}

func accountReq(addr state.AccountAddr, nonce state.Nonce, method Method) UpdateRequest {
	return UpdateRequest{
		Sender:  Sender{Account: &addr},
		Payload: Payload{Nonce: nonce, Method: method},
	}
}

func nodeReq(n state.NodeKey, nonce state.Nonce, method Method) UpdateRequest {
	return UpdateRequest{
		Sender:  Sender{Node: &n},
		Payload: Payload{Nonce: nonce, Method: method},
	}
}

func requireSuccess(t *testing.T, resp TransactionResponse) {
	t.Helper()
	if resp.Revert != nil {
		t.Fatalf("expected success, got revert %v", *resp.Revert)
	}
}

func requireRevert(t *testing.T, resp TransactionResponse, kind ErrorKind) {
	t.Helper()
	if resp.Revert == nil {
		t.Fatalf("expected revert %v, got success", kind)
	}
	if *resp.Revert != kind {
		t.Fatalf("expected revert %v, got %v", kind, *resp.Revert)
	}
}

func strPtr(s string) *string { return &s }

// TestStakeLifecycle walks deposit, initial stake, top-up stake, unstake
// and a premature withdrawal.
func TestStakeLifecycle(t *testing.T) {
	ex, s, _ := newTestExecutor()
	owner := state.AccountAddr{1}
	node := state.NodeKey{2}
	s.SetParamUint64(state.ParamLockTime, 100)

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(2000)}),
		accountReq(owner, 2, Stake{
			Amount: state.AmountFromUnits(1000), NodeKey: node,
			NodeNetworkKey: strPtr("nk"), NodeDomain: strPtr("/dns/node.example/tcp/4200"),
			WorkerPublicKey: strPtr("pk"), WorkerDomain: strPtr("/dns/worker.example/tcp/4201"),
			WorkerMempoolAddress: strPtr("/dns/worker.example/tcp/4202"),
		}),
		accountReq(owner, 3, Stake{Amount: state.AmountFromUnits(1000), NodeKey: node}),
		accountReq(owner, 4, Unstake{Amount: state.AmountFromUnits(1000), Node: node}),
		accountReq(owner, 5, WithdrawUnstaked{Node: node}),
	}}

	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireSuccess(t, resp.Receipts[0])
	requireSuccess(t, resp.Receipts[1])
	requireSuccess(t, resp.Receipts[2])
	requireSuccess(t, resp.Receipts[3])
	requireRevert(t, resp.Receipts[4], TokensLocked)
}

// TestStakeLockBlocksUnstake checks that an active stake lock forbids
// unstaking.
func TestStakeLockBlocksUnstake(t *testing.T) {
	ex, s, _ := newTestExecutor()
	owner := state.AccountAddr{1}
	node := state.NodeKey{2}
	s.SetParamUint64(state.ParamEpochTime, 1)

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(1000)}),
		accountReq(owner, 2, Stake{
			Amount: state.AmountFromUnits(1000), NodeKey: node,
			NodeNetworkKey: strPtr("nk"), NodeDomain: strPtr("/dns/node.example/tcp/4200"),
			WorkerPublicKey: strPtr("pk"), WorkerDomain: strPtr("/dns/worker.example/tcp/4201"),
			WorkerMempoolAddress: strPtr("/dns/worker.example/tcp/4202"),
		}),
		accountReq(owner, 3, StakeLock{Node: node, LockedFor: 365}),
		accountReq(owner, 4, Unstake{Amount: state.AmountFromUnits(1000), Node: node}),
	}}

	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireSuccess(t, resp.Receipts[0])
	requireSuccess(t, resp.Receipts[1])
	requireSuccess(t, resp.Receipts[2])
	requireRevert(t, resp.Receipts[3], LockedTokensUnstakeForbidden)

	info, _ := s.Nodes.Get(node)
	if info.Stake.StakeLockedUntil != 365 {
		t.Fatalf("want stake_locked_until=365, got %d", info.Stake.StakeLockedUntil)
	}
}

// TestDeliveryAcknowledgment submits pods for two services and checks the
// served commodities and the priced reward pool.
func TestDeliveryAcknowledgment(t *testing.T) {
	ex, s, _ := newTestExecutor()
	owner := state.AccountAddr{1}
	node := state.NodeKey{2}
	s.Nodes.Set(node, state.NodeInfo{Owner: owner})
	s.Prices.Set(0, state.AmountFromMilliUnits(100)) // 0.1
	s.Prices.Set(1, state.AmountFromMilliUnits(200)) // 0.2

	block := Block{Transactions: []UpdateRequest{
		nodeReq(node, 1, SubmitDeliveryAcknowledgmentAggregation{Commodity: state.AmountFromUnits(1000), ServiceID: 0}),
		nodeReq(node, 2, SubmitDeliveryAcknowledgmentAggregation{Commodity: state.AmountFromUnits(2000), ServiceID: 1}),
	}}

	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireSuccess(t, resp.Receipts[0])
	requireSuccess(t, resp.Receipts[1])

	served, ok := s.Served.Get(state.ServedKey{Epoch: 0, Node: node})
	if !ok {
		t.Fatalf("served info must be recorded")
	}
	if served.Served[0].Cmp(state.AmountFromUnits(1000)) != 0 || served.Served[1].Cmp(state.AmountFromUnits(2000)) != 0 {
		t.Fatalf("unexpected served commodities: %v", served.Served)
	}
	want := state.AmountFromUnits(500)
	if served.RewardPool.Cmp(want) != 0 {
		t.Fatalf("want reward pool %s, got %s", want, served.RewardPool)
	}
}

// TestEpochChangeQuorum drives a 4-member committee to the 3-signal quorum.
func TestEpochChangeQuorum(t *testing.T) {
	ex, s, _ := newTestExecutor()
	var members []state.NodeKey
	for i := 0; i < 4; i++ {
		var k state.NodeKey
		k[0] = byte(i + 1)
		members = append(members, k)
		s.Nodes.Set(k, state.NodeInfo{Owner: state.AccountAddr{byte(i + 1)}})
	}
	s.Committees.Set(0, state.Committee{Members: members, ReadyToChange: map[string]bool{}})

	block := Block{Transactions: []UpdateRequest{
		nodeReq(members[0], 1, ChangeEpoch{Epoch: 0}),
		nodeReq(members[1], 1, ChangeEpoch{Epoch: 0}),
		nodeReq(members[2], 1, ChangeEpoch{Epoch: 0}),
	}}

	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if resp.Receipts[0].Success == nil || resp.Receipts[0].Success.ChangeEpoch {
		t.Fatalf("1st signal must not change epoch")
	}
	if resp.Receipts[1].Success == nil || resp.Receipts[1].Success.ChangeEpoch {
		t.Fatalf("2nd signal must not change epoch")
	}
	if resp.Receipts[2].Success == nil || !resp.Receipts[2].Success.ChangeEpoch {
		t.Fatalf("3rd signal of 4 must change epoch")
	}
	if !resp.ChangeEpoch {
		t.Fatalf("block response must report change_epoch=true")
	}
	if s.CurrentEpoch() != 1 {
		t.Fatalf("want epoch 1, got %d", s.CurrentEpoch())
	}
}

func TestInvalidNonceDoesNotBumpNonce(t *testing.T) {
	ex, s, _ := newTestExecutor()
	owner := state.AccountAddr{1}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 5, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(1)}),
	}}
	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireRevert(t, resp.Receipts[0], InvalidNonce)

	acct, _ := s.Accounts.Get(owner)
	if acct.Nonce != 0 {
		t.Fatalf("nonce must not advance on InvalidNonce, got %d", acct.Nonce)
	}
}

func TestInvalidSignatureDoesNotBumpNonce(t *testing.T) {
	backend := tables.NewMemoryBackend()
	ex := New(backend, rejectingVerifier{}, fakeOracle{approve: true}, nil)
	s := state.New(backend)
	owner := state.AccountAddr{1}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(1)}),
	}}
	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireRevert(t, resp.Receipts[0], InvalidSignature)

	acct, _ := s.Accounts.Get(owner)
	if acct.Nonce != 0 {
		t.Fatalf("nonce must not advance on InvalidSignature, got %d", acct.Nonce)
	}
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(publicKey []byte, digest state.Digest, signature []byte) bool {
	return false
}

func TestInsufficientBalanceStillBumpsNonce(t *testing.T) {
	ex, s, _ := newTestExecutor()
	owner := state.AccountAddr{1}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Withdraw{Amount: state.AmountFromUnits(100), Token: state.TokenFLK}),
	}}
	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireRevert(t, resp.Receipts[0], InsufficientBalance)

	acct, _ := s.Accounts.Get(owner)
	if acct.Nonce != 1 {
		t.Fatalf("nonce must still advance on a domain revert, got %d", acct.Nonce)
	}
}

func TestStakeInvalidInternetAddressReverts(t *testing.T) {
	ex, _, _ := newTestExecutor()
	owner := state.AccountAddr{1}
	node := state.NodeKey{2}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(1000)}),
		accountReq(owner, 2, Stake{
			Amount: state.AmountFromUnits(1000), NodeKey: node,
			NodeNetworkKey: strPtr("nk"), NodeDomain: strPtr("not a multiaddr"),
			WorkerPublicKey: strPtr("pk"), WorkerDomain: strPtr("/dns/worker.example/tcp/4201"),
			WorkerMempoolAddress: strPtr("/dns/worker.example/tcp/4202"),
		}),
	}}
	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireSuccess(t, resp.Receipts[0])
	requireRevert(t, resp.Receipts[1], InvalidInternetAddress)
}

func TestStakeNewNodeRequiresFullDetails(t *testing.T) {
	ex, _, _ := newTestExecutor()
	owner := state.AccountAddr{1}
	node := state.NodeKey{2}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owner, 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(1000)}),
		accountReq(owner, 2, Stake{Amount: state.AmountFromUnits(1000), NodeKey: node}),
	}}
	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireSuccess(t, resp.Receipts[0])
	requireRevert(t, resp.Receipts[1], InsufficientNodeDetails)
}

// TestTokenConservation drives a mixed sequence of deposits, stakes,
// unstakes, withdrawals and reverts, then checks token conservation: the sum of
// flk balances plus every node's staked+locked custody equals exactly what
// the bridge minted minus what it withdrew.
func TestTokenConservation(t *testing.T) {
	ex, s, _ := newTestExecutor()
	s.SetParamUint64(state.ParamLockTime, 0)

	owners := []state.AccountAddr{{1}, {2}, {3}}
	nodes := []state.NodeKey{{11}, {12}, {13}}

	fullStake := func(owner state.AccountAddr, nonce state.Nonce, node state.NodeKey, units uint64) UpdateRequest {
		return accountReq(owner, nonce, Stake{
			Amount: state.AmountFromUnits(units), NodeKey: node,
			NodeNetworkKey: strPtr("nk"), NodeDomain: strPtr("/dns/node.example/tcp/4200"),
			WorkerPublicKey: strPtr("pk"), WorkerDomain: strPtr("/dns/worker.example/tcp/4201"),
			WorkerMempoolAddress: strPtr("/dns/worker.example/tcp/4202"),
		})
	}

	block := Block{Transactions: []UpdateRequest{
		accountReq(owners[0], 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(5000)}),
		accountReq(owners[1], 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(3000)}),
		accountReq(owners[2], 1, Deposit{Token: state.TokenFLK, Amount: state.AmountFromUnits(700)}),
		fullStake(owners[0], 2, nodes[0], 4000),
		fullStake(owners[1], 2, nodes[1], 2500),
		fullStake(owners[2], 2, nodes[2], 9999), // reverts: InsufficientBalance
		accountReq(owners[0], 3, Unstake{Amount: state.AmountFromUnits(1500), Node: nodes[0]}),
		accountReq(owners[0], 4, WithdrawUnstaked{Node: nodes[0]}), // lock_time=0, immediate
		accountReq(owners[1], 3, Withdraw{Amount: state.AmountFromUnits(200), Token: state.TokenFLK}),
		accountReq(owners[2], 3, Withdraw{Amount: state.AmountFromUnits(50_000), Token: state.TokenFLK}), // reverts
	}}

	resp, err := ex.ExecuteBlock(block)
	if err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	requireRevert(t, resp.Receipts[5], InsufficientBalance)
	requireRevert(t, resp.Receipts[9], InsufficientBalance)

	minted := state.AmountFromUnits(5000 + 3000 + 700)
	withdrawn := state.AmountFromUnits(200)

	total := state.ZeroAmount()
	for _, o := range owners {
		acct, _ := s.Accounts.Get(o)
		total = total.Add(acct.FlkBalance)
	}
	for _, n := range nodes {
		info, ok := s.Nodes.Get(n)
		if !ok {
			continue
		}
		total = total.Add(info.Stake.Staked).Add(info.Stake.Locked)
	}

	want, ok := minted.Sub(withdrawn)
	if !ok {
		t.Fatalf("withdrawn exceeds minted")
	}
	if total.Cmp(want) != 0 {
		t.Fatalf("token conservation violated: have %s in custody, want %s", total, want)
	}
}
