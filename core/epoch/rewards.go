package epoch

import (
	"math/big"

	"github.com/glacieros/lumen/core/state"
)

// distributeRewards runs the reward-emission formula exactly once per
// epoch transition over every node recorded as served in epoch E:
//
//  1. reward_pool  = Σ_n ServedInfo[(E,n)].reward_pool   (stable-coin units)
//  2. max_emissions = MaxInflation × S_year ÷ RewardDivisor
//  3. e = max_emissions ÷ (reward_pool × MaxBoost)
//  4. for each node n with earnings u_n = ServedInfo[(E,n)].reward_pool:
//     - boost b_n ramps linearly from 1x to MaxBoost over
//       ParamBoostWindowEpochs of remaining stake lock.
//     - total node emission = e × b_n × u_n, split NodeShare / ProtocolShare
//       / ValidatorShare out of 100: the node share credits the owner's
//       flk_balance, the protocol share credits ProtocolAddr, and the
//       validator share is split pro-rata across the epoch's committee
//       members' owners.
//     - u_n itself (unscaled by boost or share) credits the owner's
//       stables_balance.
//  5. All arithmetic floors. Dust left by the share split and the
//     validator pro-rata split, and the emission of a node no longer
//     registered, accrues to ProtocolAddr; the remainder of the per-node
//     emission division is not minted.
func (c *Controller) distributeRewards(e state.Epoch) error {
	rows := c.state.ServedInEpoch(e)
	if len(rows) == 0 {
		return nil
	}

	totalEarnings := new(big.Int)
	for _, row := range rows {
		totalEarnings.Add(totalEarnings, row.Value.RewardPool.Raw())
	}
	if totalEarnings.Sign() == 0 {
		return nil
	}

	maxBoost := c.state.ParamUint64(state.ParamMaxBoost)
	if maxBoost < 1 {
		maxBoost = 1
	}
	maxEmissions := c.state.YearStartSupply().MulFracUint64(
		c.state.ParamUint64(state.ParamMaxInflation),
		c.state.ParamUint64(state.ParamRewardDivisor),
	)

	// denom = totalEarnings * MaxBoost * 1000 (the extra 1000 undoes the
	// permille scale of the boost factor).
	denom := new(big.Int).Mul(totalEarnings, new(big.Int).SetUint64(maxBoost))
	denom.Mul(denom, big.NewInt(1000))

	nodeShare := c.state.ParamUint64(state.ParamNodeShare)
	protocolShare := c.state.ParamUint64(state.ParamProtocolShare)
	validatorShare := c.state.ParamUint64(state.ParamValidatorShare)

	committee, _ := c.state.Committees.Get(e)
	validators := committeeOwners(c.state, committee)

	dust := state.ZeroAmount()

	for _, row := range rows {
		u := row.Value.RewardPool
		boostPermille := c.boostFactorPermille(row.Key.Node, e)

		// nodeEmission.raw = maxEmissions.raw * boostPermille * u.raw / denom
		num := new(big.Int).Mul(maxEmissions.Raw(), new(big.Int).SetUint64(boostPermille))
		num.Mul(num, u.Raw())
		nodeEmission := state.AmountFromRaw(num.Div(num, denom))

		toNode := nodeEmission.MulFracUint64(nodeShare, 100)
		toProtocolShare := nodeEmission.MulFracUint64(protocolShare, 100)
		toValidatorShare := nodeEmission.MulFracUint64(validatorShare, 100)

		info, ok := c.state.Nodes.Get(row.Key.Node)
		if !ok {
			// Node unregistered since being served: its whole emission is
			// unclaimed and becomes dust.
			dust = dust.Add(nodeEmission)
			continue
		}

		owner, _ := c.state.Accounts.Get(info.Owner)
		owner.FlkBalance = owner.FlkBalance.Add(toNode)
		owner.StablesBalance = owner.StablesBalance.Add(u)
		c.state.Accounts.Set(info.Owner, owner)

		protocolAcct, _ := c.state.Accounts.Get(state.ProtocolAddr)
		protocolAcct.FlkBalance = protocolAcct.FlkBalance.Add(toProtocolShare)
		c.state.Accounts.Set(state.ProtocolAddr, protocolAcct)

		if len(validators) > 0 && !toValidatorShare.IsZero() {
			per := toValidatorShare.MulFracUint64(1, uint64(len(validators)))
			for _, v := range validators {
				vAcct, _ := c.state.Accounts.Get(v)
				vAcct.FlkBalance = vAcct.FlkBalance.Add(per)
				c.state.Accounts.Set(v, vAcct)
			}
			paid := per.MulFracUint64(uint64(len(validators)), 1)
			if leftover, ok := toValidatorShare.Sub(paid); ok {
				dust = dust.Add(leftover)
			}
		} else {
			dust = dust.Add(toValidatorShare)
		}

		if leftover, ok := nodeEmission.Sub(toNode.Add(toProtocolShare).Add(toValidatorShare)); ok {
			dust = dust.Add(leftover)
		}
	}

	if !dust.IsZero() {
		protocolAcct, _ := c.state.Accounts.Get(state.ProtocolAddr)
		protocolAcct.FlkBalance = protocolAcct.FlkBalance.Add(dust)
		c.state.Accounts.Set(state.ProtocolAddr, protocolAcct)
	}

	return nil
}

// committeeOwners resolves a committee's member node keys to their owning
// accounts, for pro-rata validator-share distribution.
func committeeOwners(s *state.State, committee state.Committee) []state.AccountAddr {
	owners := make([]state.AccountAddr, 0, len(committee.Members))
	for _, member := range committee.Members {
		info, ok := s.Nodes.Get(member)
		if !ok {
			continue
		}
		owners = append(owners, info.Owner)
	}
	return owners
}

// boostFactorPermille returns a node's stake-lock boost as a permille
// multiplier (1000 == 1.0x, up to MaxBoost*1000 == MaxBoost x), ramping
// linearly from 1x to MaxBoost across ParamBoostWindowEpochs of remaining
// stake lock. The window length is a genesis-configured parameter rather
// than a hardcoded four-year constant.
func (c *Controller) boostFactorPermille(node state.NodeKey, epoch state.Epoch) uint64 {
	info, ok := c.state.Nodes.Get(node)
	if !ok || info.Stake.StakeLockedUntil <= epoch {
		return 1000
	}
	window := c.state.ParamUint64(state.ParamBoostWindowEpochs)
	if window == 0 {
		return 1000
	}
	maxBoost := c.state.ParamUint64(state.ParamMaxBoost)
	if maxBoost < 1 {
		maxBoost = 1
	}
	remaining := uint64(info.Stake.StakeLockedUntil - epoch)
	if remaining > window {
		remaining = window
	}
	extra := (maxBoost - 1) * 1000 * remaining / window
	return 1000 + extra
}
