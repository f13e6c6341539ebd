package state

import "github.com/glacieros/lumen/core/tables"

// Table tags, one per entity, forming the single-byte namespace prefix
// every table's keys share within a Backend/Overlay.
const (
	tagAccounts byte = iota
	tagNodes
	tagCommittees
	tagServed
	tagServices
	tagParams
	tagMetadata
	tagReputation
	tagAuthority
	tagPrices
)

// State is the set of typed tables that make up the node's ledger. It
// carries no logic beyond binding each Ref to its backend and codecs.
type State struct {
	Accounts   tables.Ref[AccountAddr, AccountInfo]
	Nodes      tables.Ref[NodeKey, NodeInfo]
	Committees tables.Ref[Epoch, Committee]
	Served     tables.Ref[ServedKey, ServedInfo]
	Services   tables.Ref[ServiceID, Service]
	Params     tables.Ref[ParamTag, Scalar]
	Metadata   tables.Ref[MetadataTag, Scalar]
	Reputation tables.Ref[NodeKey, ReputationLog]
	Authority  tables.Ref[struct{}, AuthorityList]
	Prices     tables.Ref[ServiceID, Amount]
}

// New binds a State's tables to backend. backend is typically a
// *tables.Overlay for the duration of one block, or a raw tables.Backend for
// read-only query access between blocks.
func New(backend tables.Backend) *State {
	return &State{
		Accounts:   tables.NewRef[AccountAddr, AccountInfo](tagAccounts, backend, accountAddrCodec{}, jsonCodec[AccountInfo]{}),
		Nodes:      tables.NewRef[NodeKey, NodeInfo](tagNodes, backend, nodeKeyCodec{}, jsonCodec[NodeInfo]{}),
		Committees: tables.NewRef[Epoch, Committee](tagCommittees, backend, epochCodec{}, jsonCodec[Committee]{}),
		Served:     tables.NewRef[ServedKey, ServedInfo](tagServed, backend, servedKeyCodec{}, jsonCodec[ServedInfo]{}),
		Services:   tables.NewRef[ServiceID, Service](tagServices, backend, serviceIDCodec{}, jsonCodec[Service]{}),
		Params:     tables.NewRef[ParamTag, Scalar](tagParams, backend, paramTagCodec{}, jsonCodec[Scalar]{}),
		Metadata:   tables.NewRef[MetadataTag, Scalar](tagMetadata, backend, metadataTagCodec{}, jsonCodec[Scalar]{}),
		Reputation: tables.NewRef[NodeKey, ReputationLog](tagReputation, backend, nodeKeyCodec{}, jsonCodec[ReputationLog]{}),
		Authority:  tables.NewRef[struct{}, AuthorityList](tagAuthority, backend, singletonKeyCodec{}, jsonCodec[AuthorityList]{}),
		Prices:     tables.NewRef[ServiceID, Amount](tagPrices, backend, serviceIDCodec{}, amountCodec{}),
	}
}

// CurrentEpoch reads Metadata[Epoch], defaulting to 0 before genesis has
// written it.
func (s *State) CurrentEpoch() Epoch {
	v, ok := s.Metadata.Get(MetaEpoch)
	if !ok {
		return 0
	}
	return Epoch(v.U64)
}

// SetCurrentEpoch writes Metadata[Epoch].
func (s *State) SetCurrentEpoch(e Epoch) {
	s.Metadata.Set(MetaEpoch, ScalarU64(uint64(e)))
}

// YearStartSupply reads Metadata[YearStartSupply].
func (s *State) YearStartSupply() Amount {
	v, ok := s.Metadata.Get(MetaYearStartSupply)
	if !ok {
		return ZeroAmount()
	}
	return v.Amount
}

// SetYearStartSupply writes Metadata[YearStartSupply].
func (s *State) SetYearStartSupply(a Amount) {
	s.Metadata.Set(MetaYearStartSupply, ScalarAmount(a))
}

// ParamUint64 reads an integer-valued protocol parameter, defaulting to 0.
func (s *State) ParamUint64(tag ParamTag) uint64 {
	v, _ := s.Params.Get(tag)
	return v.U64
}

// ParamAmount reads an Amount-valued protocol parameter, defaulting to zero.
func (s *State) ParamAmount(tag ParamTag) Amount {
	v, _ := s.Params.Get(tag)
	return v.Amount
}

// SetParamUint64 writes an integer-valued protocol parameter.
func (s *State) SetParamUint64(tag ParamTag, v uint64) {
	s.Params.Set(tag, ScalarU64(v))
}

// SetParamAmount writes an Amount-valued protocol parameter.
func (s *State) SetParamAmount(tag ParamTag, v Amount) {
	s.Params.Set(tag, ScalarAmount(v))
}

// EpochPrefix returns the canonical encoding of e, usable as the leading
// prefix of a ServedKey so callers can range over every node served in one
// epoch without scanning the whole table.
func EpochPrefix(e Epoch) []byte {
	return epochCodec{}.Encode(e)
}

// ServedInEpoch returns every (ServedKey, ServedInfo) row recorded for epoch e.
func (s *State) ServedInEpoch(e Epoch) []tables.Entry[ServedKey, ServedInfo] {
	return s.Served.IterPrefix(EpochPrefix(e))
}

// Price returns the per-unit price for a service id, defaulting to zero if
// no price has been configured.
func (s *State) Price(id ServiceID) Amount {
	v, ok := s.Prices.Get(id)
	if !ok {
		return ZeroAmount()
	}
	return v
}
