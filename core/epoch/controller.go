// Package epoch implements the committee-driven epoch state machine:
// signal accumulation, quorum-triggered transition, reward distribution and
// committee selection.
package epoch

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/glacieros/lumen/core/state"
)

// ErrorKind mirrors the executor's closed Revert taxonomy for the two
// epoch-specific failure modes.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrNotCommitteeMember
	ErrAlreadySignaled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotCommitteeMember:
		return "NotCommitteeMember"
	case ErrAlreadySignaled:
		return "AlreadySignaled"
	default:
		return "None"
	}
}

// Controller drives epoch transitions against one State. It holds no
// transaction-local state of its own: every call reads and writes directly
// through the State, which is Overlay-backed during block execution.
type Controller struct {
	state  *state.State
	logger *logrus.Logger
}

// New builds a Controller bound to s.
func New(s *state.State, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller{state: s, logger: logger}
}

// Signal records one committee member's ChangeEpoch vote for the given
// epoch and, once quorum is reached, performs the full transition: reward
// distribution, committee selection and the Epoch metadata bump. It returns
// whether this call caused the transition.
func (c *Controller) Signal(caller state.NodeKey, wantEpoch state.Epoch) (changed bool, kind ErrorKind, err error) {
	current := c.state.CurrentEpoch()
	if wantEpoch != current {
		// The caller's view of the epoch disagrees with state: since we
		// cannot distinguish "stale, the epoch already moved on" from
		// "premature, the epoch hasn't arrived" from the value alone beyond
		// its direction relative to current, we use that direction: trying
		// to close an epoch already behind us is "already changed"; trying
		// to close one still ahead of us is "not yet ready".
		if wantEpoch < current {
			return false, ErrNone, errEpochAlreadyChanged
		}
		return false, ErrNone, errNotYetReady
	}

	committee, ok := c.state.Committees.Get(current)
	if !ok {
		return false, ErrNotCommitteeMember, nil
	}
	if !committee.IsMember(caller) {
		return false, ErrNotCommitteeMember, nil
	}
	if committee.HasSignaled(caller) {
		return false, ErrAlreadySignaled, nil
	}

	if committee.ReadyToChange == nil {
		committee.ReadyToChange = make(map[string]bool)
	}
	committee.ReadyToChange[caller.String()] = true
	c.state.Committees.Set(current, committee)

	if !committee.QuorumReached() {
		return false, ErrNone, nil
	}

	if err := c.transition(current, committee); err != nil {
		return false, ErrNone, err
	}
	return true, ErrNone, nil
}

// transition runs exactly once per quorum event: rewards are settled, the
// next committee is chosen and the epoch counter advances.
func (c *Controller) transition(current state.Epoch, committee state.Committee) error {
	if err := c.distributeRewards(current); err != nil {
		return fmt.Errorf("epoch: distribute rewards for epoch %d: %w", current, err)
	}

	next := current + 1
	newMembers := c.chooseNewCommittee(current)
	newCommittee := state.Committee{
		Members:           newMembers,
		ReadyToChange:     make(map[string]bool),
		EpochEndTimestamp: committee.EpochEndTimestamp + c.state.ParamUint64(state.ParamEpochTime),
	}
	c.state.Committees.Set(next, newCommittee)
	c.state.SetCurrentEpoch(next)
	c.logger.WithFields(logrus.Fields{"from_epoch": current, "to_epoch": next, "members": len(newMembers)}).
		Info("epoch transition complete")
	return nil
}
