package executor

import "github.com/glacieros/lumen/core/state"

// EpochInfo is the result of GetEpochInfo.
type EpochInfo struct {
	Epoch     state.Epoch
	Committee state.Committee
}

// Query answers the node's read-only queries directly against a
// state.State snapshot. It never mutates and is safe to call between
// blocks against the durable backend, or mid-block against the overlay
// behind the state currently being executed.
type Query struct {
	state *state.State
}

// NewQuery binds a Query to s.
func NewQuery(s *state.State) *Query { return &Query{state: s} }

// GetEpochInfo returns the current epoch and its committee row.
func (q *Query) GetEpochInfo() EpochInfo {
	e := q.state.CurrentEpoch()
	committee, _ := q.state.Committees.Get(e)
	return EpochInfo{Epoch: e, Committee: committee}
}

// GetFlkBalance returns an account's flk_balance.
func (q *Query) GetFlkBalance(addr state.AccountAddr) state.Amount {
	info, _ := q.state.Accounts.Get(addr)
	return info.FlkBalance
}

// GetStablesBalance returns an account's stables_balance.
func (q *Query) GetStablesBalance(addr state.AccountAddr) state.Amount {
	info, _ := q.state.Accounts.Get(addr)
	return info.StablesBalance
}

// GetStaked returns a node's stake.staked.
func (q *Query) GetStaked(node state.NodeKey) state.Amount {
	info, _ := q.state.Nodes.Get(node)
	return info.Stake.Staked
}

// GetLocked returns a node's stake.locked.
func (q *Query) GetLocked(node state.NodeKey) state.Amount {
	info, _ := q.state.Nodes.Get(node)
	return info.Stake.Locked
}

// GetLockedTime returns a node's stake.locked_until.
func (q *Query) GetLockedTime(node state.NodeKey) state.Epoch {
	info, _ := q.state.Nodes.Get(node)
	return info.Stake.LockedUntil
}

// GetStakeLockedUntil returns a node's stake.stake_locked_until.
func (q *Query) GetStakeLockedUntil(node state.NodeKey) state.Epoch {
	info, _ := q.state.Nodes.Get(node)
	return info.Stake.StakeLockedUntil
}

// GetTotalServed returns the aggregate ServedInfo for every node recorded
// in epoch e: the summed per-service commodity and the summed reward pool.
func (q *Query) GetTotalServed(e state.Epoch) state.ServedInfo {
	var total state.ServedInfo
	for _, row := range q.state.ServedInEpoch(e) {
		total.RewardPool = total.RewardPool.Add(row.Value.RewardPool)
		for i, v := range row.Value.Served {
			for len(total.Served) <= i {
				total.Served = append(total.Served, state.ZeroAmount())
			}
			total.Served[i] = total.Served[i].Add(v)
		}
	}
	return total
}

// GetCommodityServed returns the current epoch's per-service commodity
// served by node, as recorded by SubmitDeliveryAcknowledgmentAggregation.
func (q *Query) GetCommodityServed(node state.NodeKey) []state.Amount {
	key := state.ServedKey{Epoch: q.state.CurrentEpoch(), Node: node}
	served, _ := q.state.Served.Get(key)
	return served.Served
}

// GetRewardPool returns the reward pool accumulated across every node
// served in epoch e.
func (q *Query) GetRewardPool(e state.Epoch) state.Amount {
	return q.GetTotalServed(e).RewardPool
}

// GetProtocolParams returns the scalar protocol parameter for tag.
func (q *Query) GetProtocolParams(tag state.ParamTag) state.Scalar {
	v, _ := q.state.Params.Get(tag)
	return v
}

// GetYearStartSupply returns the year-start token supply used by the
// reward-emission formula.
func (q *Query) GetYearStartSupply() state.Amount {
	return q.state.YearStartSupply()
}

// GetNodeInfo returns the full NodeInfo row for node.
func (q *Query) GetNodeInfo(node state.NodeKey) (state.NodeInfo, bool) {
	return q.state.Nodes.Get(node)
}

// GetRepMeasurements returns the accumulated reputation reports about peer.
func (q *Query) GetRepMeasurements(peer state.NodeKey) []state.ReputationRecord {
	log, _ := q.state.Reputation.Get(peer)
	return log.Records
}

// QuerySurface is the external-facing contract of the read-only queries,
// so a concrete RPC/local-inspection server can depend on an interface
// rather than the concrete *Query type.
type QuerySurface interface {
	GetEpochInfo() EpochInfo
	GetFlkBalance(state.AccountAddr) state.Amount
	GetStablesBalance(state.AccountAddr) state.Amount
	GetStaked(state.NodeKey) state.Amount
	GetLocked(state.NodeKey) state.Amount
	GetLockedTime(state.NodeKey) state.Epoch
	GetStakeLockedUntil(state.NodeKey) state.Epoch
	GetTotalServed(state.Epoch) state.ServedInfo
	GetCommodityServed(state.NodeKey) []state.Amount
	GetRewardPool(state.Epoch) state.Amount
	GetProtocolParams(state.ParamTag) state.Scalar
	GetYearStartSupply() state.Amount
	GetNodeInfo(state.NodeKey) (state.NodeInfo, bool)
	GetRepMeasurements(state.NodeKey) []state.ReputationRecord
}

var _ QuerySurface = (*Query)(nil)
