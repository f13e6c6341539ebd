package state

// MetadataTag enumerates the scalar Metadata keys.
type MetadataTag byte

const (
	MetaEpoch MetadataTag = iota
	MetaYearStartSupply
)

// ParamTag enumerates the protocol parameters.
type ParamTag byte

const (
	ParamEpochTime ParamTag = iota
	ParamLockTime
	ParamMaxInflation
	ParamMaxBoost
	ParamNodeShare
	ParamProtocolShare
	ParamValidatorShare
	ParamMinStake
	// ParamRewardDivisor is the per-epoch emission divisor: 36500 when a
	// year holds 100 epochs per day.
	ParamRewardDivisor
	// ParamBoostWindowEpochs is the number of epochs over which the
	// stake-lock boost ramps linearly to MaxBoost, nominally four years'
	// worth.
	ParamBoostWindowEpochs
	// ParamDailyEpochs is the number of epochs per day. Genesis uses it to
	// derive the default boost window; the max_emissions formula does not
	// read it (its divisor is ParamRewardDivisor).
	ParamDailyEpochs
)

// Scalar is the value type shared by the Metadata and Parameter tables.
// Each concrete tag uses whichever of U64/Amount is meaningful for it; the
// pair keeps the table schema uniform, one shared row shape per table
// rather than many single-field tables.
type Scalar struct {
	U64    uint64 `json:"u64"`
	Amount Amount `json:"amount"`
}

func ScalarU64(v uint64) Scalar   { return Scalar{U64: v} }
func ScalarAmount(a Amount) Scalar { return Scalar{Amount: a} }
