package epoch

import "github.com/glacieros/lumen/core/state"

// chooseNewCommittee selects the membership for epoch+1 from the set of
// nodes staked as of epoch: the prior committee filtered down to members
// still meeting ParamMinStake.
//
// TODO: replace with a stake-weighted VRF draw once a randomness beacon
// collaborator is wired in.
func (c *Controller) chooseNewCommittee(epoch state.Epoch) []state.NodeKey {
	prev, ok := c.state.Committees.Get(epoch)
	if !ok || len(prev.Members) == 0 {
		return nil
	}

	minStake := c.state.ParamAmount(state.ParamMinStake)
	qualified := make([]state.NodeKey, 0, len(prev.Members))
	for _, member := range prev.Members {
		info, ok := c.state.Nodes.Get(member)
		if !ok {
			continue
		}
		if info.Stake.Staked.GreaterOrEqual(minStake) {
			qualified = append(qualified, member)
		}
	}
	if len(qualified) == 0 {
		// Never hand back an empty committee: fall back to the full prior
		// membership rather than stall epoch progression entirely.
		return append([]state.NodeKey(nil), prev.Members...)
	}
	return qualified
}
