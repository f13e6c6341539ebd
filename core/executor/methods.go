package executor

import (
	"github.com/glacieros/lumen/core/epoch"
	"github.com/glacieros/lumen/core/state"
)

// dispatch routes tx.Payload.Method to its handler.
// Every handler returns either (ExecutionData{}, nil) on success or
// (ExecutionData{}, Revert(kind)) on a domain-level failure; neither case
// ever returns a bare Go error.
func (e *Executor) dispatch(s *state.State, ctrl *epoch.Controller, tx UpdateRequest) (ExecutionData, error) {
	switch m := tx.Payload.Method.(type) {
	case Deposit:
		return e.doDeposit(s, tx, m)
	case Withdraw:
		return e.doWithdraw(s, tx, m)
	case Stake:
		return e.doStake(s, tx, m)
	case StakeLock:
		return e.doStakeLock(s, tx, m)
	case Unstake:
		return e.doUnstake(s, tx, m)
	case WithdrawUnstaked:
		return e.doWithdrawUnstaked(s, tx, m)
	case SubmitDeliveryAcknowledgmentAggregation:
		return e.doSubmitDeliveryAck(s, tx, m)
	case SubmitReputationMeasurements:
		return e.doSubmitReputation(s, tx, m)
	case ChangeEpoch:
		return e.doChangeEpoch(s, ctrl, tx, m)
	case AddService:
		return e.doAddService(s, tx, m)
	case RemoveService:
		return e.doRemoveService(s, tx, m)
	case Slash:
		return e.doSlash(s, tx, m)
	default:
		panic("executor: unreachable method type")
	}
}

func (e *Executor) doDeposit(s *state.State, tx UpdateRequest, m Deposit) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	addr := *tx.Sender.Account
	if !e.oracle.VerifyDeposit(m.Proof, m.Token, m.Amount, addr) {
		return ExecutionData{}, Revert(InvalidProof)
	}
	acct := e.getAccount(s, addr)
	switch m.Token {
	case state.TokenFLK:
		acct.FlkBalance = acct.FlkBalance.Add(m.Amount)
	case state.TokenUSDC:
		acct.StablesBalance = acct.StablesBalance.Add(m.Amount)
	}
	e.setAccount(s, addr, acct)
	return ExecutionData{}, nil
}

func (e *Executor) doWithdraw(s *state.State, tx UpdateRequest, m Withdraw) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	addr := *tx.Sender.Account
	acct := e.getAccount(s, addr)

	switch m.Token {
	case state.TokenFLK:
		remaining, ok := acct.FlkBalance.Sub(m.Amount)
		if !ok {
			return ExecutionData{}, Revert(InsufficientBalance)
		}
		acct.FlkBalance = remaining
	case state.TokenUSDC:
		remaining, ok := acct.StablesBalance.Sub(m.Amount)
		if !ok {
			return ExecutionData{}, Revert(InsufficientBalance)
		}
		acct.StablesBalance = remaining
	}
	e.setAccount(s, addr, acct)
	e.oracle.EmitWithdrawal(m.Token, m.Amount, m.Receiver)
	return ExecutionData{}, nil
}

func (e *Executor) doStake(s *state.State, tx UpdateRequest, m Stake) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	owner := *tx.Sender.Account

	for _, addr := range []*string{m.NodeDomain, m.WorkerDomain, m.WorkerMempoolAddress} {
		if addr != nil && !validInternetAddress(*addr) {
			return ExecutionData{}, Revert(InvalidInternetAddress)
		}
	}

	ownerAcct := e.getAccount(s, owner)
	if !ownerAcct.FlkBalance.GreaterOrEqual(m.Amount) {
		return ExecutionData{}, Revert(InsufficientBalance)
	}

	info, exists := s.Nodes.Get(m.NodeKey)
	if !exists {
		if m.NodeNetworkKey == nil || m.NodeDomain == nil || m.WorkerPublicKey == nil ||
			m.WorkerDomain == nil || m.WorkerMempoolAddress == nil {
			return ExecutionData{}, Revert(InsufficientNodeDetails)
		}
		info = state.NodeInfo{
			Owner:       owner,
			NetworkKey:  *m.NodeNetworkKey,
			Domain:      *m.NodeDomain,
			Workers:     []state.Worker{{PublicKey: *m.WorkerPublicKey, Domain: *m.WorkerDomain, MempoolAddress: *m.WorkerMempoolAddress}},
			StakedSince: s.CurrentEpoch(),
		}
	} else {
		if m.NodeNetworkKey != nil {
			info.NetworkKey = *m.NodeNetworkKey
		}
		if m.NodeDomain != nil {
			info.Domain = *m.NodeDomain
		}
		if m.WorkerPublicKey != nil || m.WorkerDomain != nil || m.WorkerMempoolAddress != nil {
			w := state.Worker{}
			if len(info.Workers) > 0 {
				w = info.Workers[0]
			}
			if m.WorkerPublicKey != nil {
				w.PublicKey = *m.WorkerPublicKey
			}
			if m.WorkerDomain != nil {
				w.Domain = *m.WorkerDomain
			}
			if m.WorkerMempoolAddress != nil {
				w.MempoolAddress = *m.WorkerMempoolAddress
			}
			if len(info.Workers) > 0 {
				info.Workers[0] = w
			} else {
				info.Workers = []state.Worker{w}
			}
		}
	}

	debited, ok := ownerAcct.FlkBalance.Sub(m.Amount)
	if !ok {
		return ExecutionData{}, Revert(InsufficientBalance)
	}
	ownerAcct.FlkBalance = debited
	info.Stake.Staked = info.Stake.Staked.Add(m.Amount)

	e.setAccount(s, owner, ownerAcct)
	s.Nodes.Set(m.NodeKey, info)
	return ExecutionData{}, nil
}

func (e *Executor) doStakeLock(s *state.State, tx UpdateRequest, m StakeLock) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	info, ok := s.Nodes.Get(m.Node)
	if !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}
	if info.Owner != *tx.Sender.Account {
		return ExecutionData{}, Revert(NotNodeOwner)
	}
	current := s.CurrentEpoch()
	want := current + state.Epoch(m.LockedFor)
	if want > info.Stake.StakeLockedUntil {
		info.Stake.StakeLockedUntil = want
	}
	s.Nodes.Set(m.Node, info)
	return ExecutionData{}, nil
}

func (e *Executor) doUnstake(s *state.State, tx UpdateRequest, m Unstake) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	info, ok := s.Nodes.Get(m.Node)
	if !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}
	if info.Owner != *tx.Sender.Account {
		return ExecutionData{}, Revert(NotNodeOwner)
	}
	if !info.Stake.Staked.GreaterOrEqual(m.Amount) {
		return ExecutionData{}, Revert(InsufficientBalance)
	}
	current := s.CurrentEpoch()
	if info.Stake.StakeLockedUntil > current {
		return ExecutionData{}, Revert(LockedTokensUnstakeForbidden)
	}

	staked, ok := info.Stake.Staked.Sub(m.Amount)
	if !ok {
		return ExecutionData{}, Revert(InsufficientBalance)
	}
	info.Stake.Staked = staked
	info.Stake.Locked = info.Stake.Locked.Add(m.Amount)
	info.Stake.LockedUntil = current + state.Epoch(s.ParamUint64(state.ParamLockTime))
	s.Nodes.Set(m.Node, info)
	return ExecutionData{}, nil
}

func (e *Executor) doWithdrawUnstaked(s *state.State, tx UpdateRequest, m WithdrawUnstaked) (ExecutionData, error) {
	if tx.Sender.Account == nil {
		return ExecutionData{}, Revert(OnlyAccountOwner)
	}
	info, ok := s.Nodes.Get(m.Node)
	if !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}
	if info.Owner != *tx.Sender.Account {
		return ExecutionData{}, Revert(NotNodeOwner)
	}
	if info.Stake.Locked.IsZero() {
		return ExecutionData{}, Revert(NoLockedTokens)
	}
	if info.Stake.LockedUntil > s.CurrentEpoch() {
		return ExecutionData{}, Revert(TokensLocked)
	}

	recipient := *tx.Sender.Account
	if m.Recipient != nil {
		recipient = *m.Recipient
	}
	recipientAcct := e.getAccount(s, recipient)
	recipientAcct.FlkBalance = recipientAcct.FlkBalance.Add(info.Stake.Locked)
	e.setAccount(s, recipient, recipientAcct)

	info.Stake.Locked = state.ZeroAmount()
	s.Nodes.Set(m.Node, info)
	return ExecutionData{}, nil
}

func (e *Executor) doSubmitDeliveryAck(s *state.State, tx UpdateRequest, m SubmitDeliveryAcknowledgmentAggregation) (ExecutionData, error) {
	if tx.Sender.Node == nil {
		return ExecutionData{}, Revert(OnlyNode)
	}
	node := *tx.Sender.Node
	if _, ok := s.Nodes.Get(node); !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}

	currentEpoch := s.CurrentEpoch()
	key := state.ServedKey{Epoch: currentEpoch, Node: node}
	served, _ := s.Served.Get(key)
	idx := int(m.ServiceID)
	for len(served.Served) <= idx {
		served.Served = append(served.Served, state.ZeroAmount())
	}
	served.Served[idx] = served.Served[idx].Add(m.Commodity)
	served.RewardPool = served.RewardPool.Add(m.Commodity.Mul(s.Price(m.ServiceID)))
	s.Served.Set(key, served)
	return ExecutionData{}, nil
}

func (e *Executor) doSubmitReputation(s *state.State, tx UpdateRequest, m SubmitReputationMeasurements) (ExecutionData, error) {
	if tx.Sender.Node == nil {
		return ExecutionData{}, Revert(OnlyNode)
	}
	reporter := *tx.Sender.Node
	if _, ok := s.Nodes.Get(reporter); !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}
	log, _ := s.Reputation.Get(m.Peer)
	log.Records = append(log.Records, state.ReputationRecord{ReportingNode: reporter, Measurements: m.Measurements})
	s.Reputation.Set(m.Peer, log)
	return ExecutionData{}, nil
}

func (e *Executor) doChangeEpoch(s *state.State, ctrl *epoch.Controller, tx UpdateRequest, m ChangeEpoch) (ExecutionData, error) {
	if tx.Sender.Node == nil {
		return ExecutionData{}, Revert(OnlyNode)
	}
	changed, kind, err := ctrl.Signal(*tx.Sender.Node, m.Epoch)
	if err != nil {
		switch {
		case epoch.IsEpochAlreadyChanged(err):
			return ExecutionData{}, Revert(EpochAlreadyChanged)
		case epoch.IsNotYetReady(err):
			return ExecutionData{}, Revert(NotYetReady)
		default:
			panic("executor: unexpected epoch controller error: " + err.Error())
		}
	}
	switch kind {
	case epoch.ErrNotCommitteeMember:
		return ExecutionData{}, Revert(NotCommitteeMember)
	case epoch.ErrAlreadySignaled:
		return ExecutionData{}, Revert(AlreadySignaled)
	}
	return ExecutionData{ChangeEpoch: changed}, nil
}

func (e *Executor) doAddService(s *state.State, tx UpdateRequest, m AddService) (ExecutionData, error) {
	if !e.isAuthority(s, tx) {
		return ExecutionData{}, Revert(NotCommitteeMember)
	}
	s.Services.Set(m.ID, state.Service{Descriptor: m.Descriptor})
	return ExecutionData{}, nil
}

func (e *Executor) doRemoveService(s *state.State, tx UpdateRequest, m RemoveService) (ExecutionData, error) {
	if !e.isAuthority(s, tx) {
		return ExecutionData{}, Revert(NotCommitteeMember)
	}
	s.Services.Remove(m.ID)
	return ExecutionData{}, nil
}

func (e *Executor) doSlash(s *state.State, tx UpdateRequest, m Slash) (ExecutionData, error) {
	if !e.isAuthority(s, tx) {
		return ExecutionData{}, Revert(NotCommitteeMember)
	}
	info, ok := s.Nodes.Get(m.Node)
	if !ok {
		return ExecutionData{}, Revert(NodeDoesNotExist)
	}
	slashed, ok := info.Stake.Staked.Sub(m.Amount)
	if !ok {
		slashed = state.ZeroAmount()
	}
	info.Stake.Staked = slashed
	s.Nodes.Set(m.Node, info)
	return ExecutionData{}, nil
}

func (e *Executor) isAuthority(s *state.State, tx UpdateRequest) bool {
	if tx.Sender.Account == nil {
		return false
	}
	return e.authority(s, *tx.Sender.Account)
}
