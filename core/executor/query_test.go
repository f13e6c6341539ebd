package executor

import (
	"testing"

	"github.com/glacieros/lumen/core/state"
)

// TestGenesisStakeQuery checks that every committee member reports the
// configured minimum stake.
func TestGenesisStakeQuery(t *testing.T) {
	_, s, _ := newTestExecutor()
	minStake := state.AmountFromUnits(1000)
	s.SetParamAmount(state.ParamMinStake, minStake)

	var members []state.NodeKey
	for i := 0; i < 4; i++ {
		var k state.NodeKey
		k[0] = byte(i + 1)
		owner := state.AccountAddr{byte(i + 1)}
		s.Nodes.Set(k, state.NodeInfo{
			Owner: owner,
			Stake: state.StakeInfo{Staked: minStake},
		})
		members = append(members, k)
	}
	s.Committees.Set(0, state.Committee{Members: members, ReadyToChange: map[string]bool{}})

	q := NewQuery(s)
	for _, m := range members {
		if got := q.GetStaked(m); got.Cmp(minStake) != 0 {
			t.Fatalf("want staked %s, got %s", minStake, got)
		}
	}
}

func TestQueryEpochInfoAndTotalServed(t *testing.T) {
	_, s, _ := newTestExecutor()
	node := state.NodeKey{9}
	s.Served.Set(state.ServedKey{Epoch: 0, Node: node}, state.ServedInfo{
		Served:     []state.Amount{state.AmountFromUnits(1000), state.AmountFromUnits(2000)},
		RewardPool: state.AmountFromUnits(500),
	})

	q := NewQuery(s)
	info := q.GetEpochInfo()
	if info.Epoch != 0 {
		t.Fatalf("want epoch 0, got %d", info.Epoch)
	}

	total := q.GetTotalServed(0)
	if total.RewardPool.Cmp(state.AmountFromUnits(500)) != 0 {
		t.Fatalf("want reward pool 500, got %s", total.RewardPool)
	}
	if len(total.Served) != 2 || total.Served[0].Cmp(state.AmountFromUnits(1000)) != 0 {
		t.Fatalf("unexpected served totals: %v", total.Served)
	}

	if got := q.GetRewardPool(0); got.Cmp(state.AmountFromUnits(500)) != 0 {
		t.Fatalf("want reward pool 500, got %s", got)
	}
	if got := q.GetCommodityServed(node); len(got) != 2 {
		t.Fatalf("want 2 commodity entries, got %v", got)
	}
}
