package executor

import (
	"encoding/binary"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/glacieros/lumen/core/state"
)

// method tags for the canonical payload encoding below. Values are stable
// across versions: changing them would change every signed digest.
const (
	tagDeposit byte = iota
	tagWithdraw
	tagStake
	tagStakeLock
	tagUnstake
	tagWithdrawUnstaked
	tagSubmitDeliveryAck
	tagSubmitReputation
	tagChangeEpoch
	tagAddService
	tagRemoveService
	tagSlash
)

// CanonicalDigest returns the Blake3 hash of p's deterministic byte
// encoding. Two payloads that
// are field-wise equal always hash identically, regardless of language or
// process.
func CanonicalDigest(p Payload) state.Digest {
	buf := encodePayload(p)
	return state.Digest(blake3.Sum256(buf))
}

func encodePayload(p Payload) []byte {
	var out []byte
	out = putUint64(out, uint64(p.Nonce))

	switch m := p.Method.(type) {
	case Deposit:
		out = append(out, tagDeposit)
		out = putBytes(out, m.Proof)
		out = append(out, byte(m.Token))
		out = putBytes(out, m.Amount.Raw().Bytes())
	case Withdraw:
		out = append(out, tagWithdraw)
		out = putBytes(out, m.Amount.Raw().Bytes())
		out = append(out, byte(m.Token))
		out = putString(out, m.Receiver)
	case Stake:
		out = append(out, tagStake)
		out = putBytes(out, m.Amount.Raw().Bytes())
		out = append(out, m.NodeKey[:]...)
		out = putOptString(out, m.NodeNetworkKey)
		out = putOptString(out, m.NodeDomain)
		out = putOptString(out, m.WorkerPublicKey)
		out = putOptString(out, m.WorkerDomain)
		out = putOptString(out, m.WorkerMempoolAddress)
	case StakeLock:
		out = append(out, tagStakeLock)
		out = append(out, m.Node[:]...)
		out = putUint64(out, m.LockedFor)
	case Unstake:
		out = append(out, tagUnstake)
		out = putBytes(out, m.Amount.Raw().Bytes())
		out = append(out, m.Node[:]...)
	case WithdrawUnstaked:
		out = append(out, tagWithdrawUnstaked)
		out = append(out, m.Node[:]...)
		if m.Recipient != nil {
			out = append(out, 1)
			out = append(out, m.Recipient[:]...)
		} else {
			out = append(out, 0)
		}
	case SubmitDeliveryAcknowledgmentAggregation:
		out = append(out, tagSubmitDeliveryAck)
		out = putBytes(out, m.Commodity.Raw().Bytes())
		out = putUint64(out, uint64(m.ServiceID))
		out = putBytes(out, m.Proofs)
		out = putBytes(out, m.Metadata)
	case SubmitReputationMeasurements:
		out = append(out, tagSubmitReputation)
		out = append(out, m.Peer[:]...)
		out = putBytes(out, m.Measurements)
	case ChangeEpoch:
		out = append(out, tagChangeEpoch)
		out = putUint64(out, uint64(m.Epoch))
	case AddService:
		out = append(out, tagAddService)
		out = putUint64(out, uint64(m.ID))
		out = putBytes(out, m.Descriptor)
	case RemoveService:
		out = append(out, tagRemoveService)
		out = putUint64(out, uint64(m.ID))
	case Slash:
		out = append(out, tagSlash)
		out = append(out, m.Node[:]...)
		out = putBytes(out, m.Amount.Raw().Bytes())
	default:
		panic(fmt.Sprintf("executor: unknown method type %T", m))
	}
	return out
}

func putUint64(out []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(out, b[:]...)
}

func putBytes(out []byte, b []byte) []byte {
	out = putUint64(out, uint64(len(b)))
	return append(out, b...)
}

func putString(out []byte, s string) []byte {
	return putBytes(out, []byte(s))
}

func putOptString(out []byte, s *string) []byte {
	if s == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	return putString(out, *s)
}
