// Package genesis loads the node's genesis file: initial committee
// members, initial protocol parameters and the initial epoch end timestamp,
// placing them into state at node startup.
package genesis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glacieros/lumen/core/state"
	"github.com/glacieros/lumen/core/tables"
)

// File is the on-disk shape of a genesis file.
type File struct {
	CommitteeMembers    []string `yaml:"committee_members"` // hex-encoded NodeKeys
	EpochEndTimestamp   uint64   `yaml:"epoch_end_timestamp"`
	SupplyAtGenesis     uint64   `yaml:"supply_at_genesis"`
	MinStake            uint64   `yaml:"min_stake"`
	MaxInflation        uint64   `yaml:"max_inflation"`
	ProtocolShare       uint64   `yaml:"protocol_share"`
	NodeShare           uint64   `yaml:"node_share"`
	ValidatorShare      uint64   `yaml:"validator_share"`
	MaxBoost            uint64   `yaml:"max_boost"`
	LockTime            uint64   `yaml:"lock_time"`
	EpochTime           uint64   `yaml:"epoch_time"`
	RewardDivisor       uint64   `yaml:"reward_divisor"`
	BoostWindowEpochs   uint64   `yaml:"boost_window_epochs"`
	DailyEpochs         uint64   `yaml:"daily_epochs"`
	GovernanceAuthority []string `yaml:"governance_authority"` // hex-encoded AccountAddrs

	// ServicePrices maps a service id to its per-commodity-unit price in
	// milli-units (100 == 0.1), consumed when pricing delivery
	// acknowledgments into the epoch reward pool.
	ServicePrices map[uint32]uint64 `yaml:"service_prices"`
}

// Load reads and parses a genesis file from path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply writes f's contents into the tables exactly once, at node startup.
// backend must not yet have Metadata[Epoch] set; calling Apply a second
// time against an already-initialized backend silently re-seeds genesis
// state, which callers must avoid.
func (f *File) Apply(backend tables.Committer) error {
	overlay := tables.NewOverlay(backend)
	s := state.New(overlay)

	members := make([]state.NodeKey, 0, len(f.CommitteeMembers))
	for _, hexKey := range f.CommitteeMembers {
		k, err := state.ParseNodeKey(hexKey)
		if err != nil {
			return fmt.Errorf("genesis: committee member %q: %w", hexKey, err)
		}
		members = append(members, k)
	}
	if len(members) == 0 {
		return fmt.Errorf("genesis: committee_members must be non-empty")
	}

	s.SetCurrentEpoch(0)
	s.Committees.Set(0, state.Committee{
		Members:           members,
		ReadyToChange:     make(map[string]bool),
		EpochEndTimestamp: f.EpochEndTimestamp,
	})

	s.SetYearStartSupply(state.AmountFromUnits(f.SupplyAtGenesis))
	s.SetParamAmount(state.ParamMinStake, state.AmountFromUnits(f.MinStake))
	s.SetParamUint64(state.ParamMaxInflation, f.MaxInflation)
	s.SetParamUint64(state.ParamProtocolShare, f.ProtocolShare)
	s.SetParamUint64(state.ParamNodeShare, f.NodeShare)
	s.SetParamUint64(state.ParamValidatorShare, f.ValidatorShare)
	s.SetParamUint64(state.ParamMaxBoost, f.MaxBoost)
	s.SetParamUint64(state.ParamLockTime, f.LockTime)
	s.SetParamUint64(state.ParamEpochTime, f.EpochTime)

	rewardDivisor := f.RewardDivisor
	if rewardDivisor == 0 {
		rewardDivisor = 36500
	}
	s.SetParamUint64(state.ParamRewardDivisor, rewardDivisor)

	dailyEpochs := f.DailyEpochs
	if dailyEpochs == 0 {
		dailyEpochs = 100
	}
	s.SetParamUint64(state.ParamDailyEpochs, dailyEpochs)

	boostWindow := f.BoostWindowEpochs
	if boostWindow == 0 {
		boostWindow = 4 * 365 * dailyEpochs
	}
	s.SetParamUint64(state.ParamBoostWindowEpochs, boostWindow)

	for id, milli := range f.ServicePrices {
		s.Prices.Set(state.ServiceID(id), state.AmountFromMilliUnits(milli))
	}

	if len(f.GovernanceAuthority) > 0 {
		authority := make([]state.AccountAddr, 0, len(f.GovernanceAuthority))
		for _, hexAddr := range f.GovernanceAuthority {
			a, err := state.ParseAccountAddr(hexAddr)
			if err != nil {
				return fmt.Errorf("genesis: governance authority %q: %w", hexAddr, err)
			}
			authority = append(authority, a)
		}
		s.Authority.Set(struct{}{}, state.AuthorityList{Members: authority})
	}

	// Stake each committee member at MinStake, pre-funding the initial
	// validator set so the membership is eligible from the first epoch.
	for _, m := range members {
		info, _ := s.Nodes.Get(m)
		info.Stake.Staked = state.AmountFromUnits(f.MinStake)
		s.Nodes.Set(m, info)
	}

	return overlay.Commit()
}
