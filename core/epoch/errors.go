package epoch

import "errors"

// errEpochAlreadyChanged and errNotYetReady are the two wantEpoch-mismatch
// reverts of ChangeEpoch: the caller's view of the current epoch either
// lags or leads the ledger's.
var (
	errEpochAlreadyChanged = errors.New("epoch: epoch already changed")
	errNotYetReady         = errors.New("epoch: not yet ready to change")
)

// IsEpochAlreadyChanged reports whether err is the EpochAlreadyChanged revert.
func IsEpochAlreadyChanged(err error) bool { return err == errEpochAlreadyChanged }

// IsNotYetReady reports whether err is the NotYetReady revert.
func IsNotYetReady(err error) bool { return err == errNotYetReady }
