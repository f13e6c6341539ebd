package state

// AccountInfo is the per-AccountAddr ledger row.
type AccountInfo struct {
	FlkBalance     Amount `json:"flk_balance"`
	StablesBalance Amount `json:"stables_balance"`
	Nonce          Nonce  `json:"nonce"`
}

// Worker describes one worker process advertised by a node at stake time.
type Worker struct {
	PublicKey      string `json:"public_key"`
	Domain         string `json:"domain"`
	MempoolAddress string `json:"mempool_address"`
}

// StakeInfo is the collateral bookkeeping embedded in NodeInfo.
type StakeInfo struct {
	Staked           Amount `json:"staked"`
	Locked           Amount `json:"locked"`
	LockedUntil      Epoch  `json:"locked_until"`
	StakeLockedUntil Epoch  `json:"stake_locked_until"`
}

// NodeInfo is the per-NodeKey registry row.
type NodeInfo struct {
	Owner       AccountAddr `json:"owner"`
	NetworkKey  string      `json:"network_key"`
	Domain      string      `json:"domain"`
	Workers     []Worker    `json:"workers"`
	StakedSince Epoch       `json:"staked_since"`
	Stake       StakeInfo   `json:"stake"`
	Nonce       Nonce       `json:"nonce"`
}

// Committee is the per-Epoch membership row. ReadyToChange is modelled
// as a map for O(1) AlreadySignaled checks; JSON encodes it as an object
// keyed by the hex node key, which is still a deterministic encoding of the
// same set.
type Committee struct {
	Members           []NodeKey       `json:"members"`
	ReadyToChange     map[string]bool `json:"ready_to_change"`
	EpochEndTimestamp uint64          `json:"epoch_end_timestamp"`
}

// IsMember reports whether n sits in the committee's ordered membership.
func (c Committee) IsMember(n NodeKey) bool {
	for _, m := range c.Members {
		if m == n {
			return true
		}
	}
	return false
}

// HasSignaled reports whether n has already recorded a ChangeEpoch signal.
func (c Committee) HasSignaled(n NodeKey) bool {
	if c.ReadyToChange == nil {
		return false
	}
	return c.ReadyToChange[n.String()]
}

// QuorumReached reports whether the accumulated signals meet the
// floor(2*|members|/3)+1 threshold.
func (c Committee) QuorumReached() bool {
	needed := (2*len(c.Members))/3 + 1
	return len(c.ReadyToChange) >= needed
}

// ServedInfo is the per-(Epoch, NodeKey) usage accumulator.
type ServedInfo struct {
	Served     []Amount `json:"served"`
	RewardPool Amount   `json:"reward_pool"`
}

// ServedKey is the composite (Epoch, NodeKey) key of the ServedInfo table.
type ServedKey struct {
	Epoch Epoch
	Node  NodeKey
}

// Service is an opaque service descriptor; running the service it
// describes is not this node core's concern.
type Service struct {
	Descriptor []byte `json:"descriptor"`
}

// ReputationRecord is one (reporting_node, measurements) entry submitted via
// SubmitReputationMeasurements, keyed by the measured peer.
type ReputationRecord struct {
	ReportingNode NodeKey `json:"reporting_node"`
	Measurements  []byte  `json:"measurements"`
}

// ReputationLog is the full set of reports received about one peer.
type ReputationLog struct {
	Records []ReputationRecord `json:"records"`
}

// AuthorityList is the governance-authority allowlist consulted by
// AddService/RemoveService/Slash.
type AuthorityList struct {
	Members []AccountAddr `json:"members"`
}

// Contains reports whether addr is a recognised governance authority.
func (a AuthorityList) Contains(addr AccountAddr) bool {
	for _, m := range a.Members {
		if m == addr {
			return true
		}
	}
	return false
}
