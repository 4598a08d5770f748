package blockchain

// ConsensusParams bundles every network-tunable constant the stake
// kernel reads, the same "plain struct of knobs" shape chaincfg.Params
// uses upstream rather than a pile of package-level constants.
type ConsensusParams struct {
	Name string

	// StakeMinAge and StakeMaxAge bound the coin-age window a kernel
	// hash is allowed to weight (seconds).
	StakeMinAge uint32
	StakeMaxAge uint32

	// ModifierInterval is the number of seconds stake modifiers are
	// chained on, regardless of how many blocks land in that window.
	ModifierInterval int64

	// StakeTargetSpacing is the intended number of seconds between
	// stake blocks. The kernel and the coin-age weight do not read it;
	// main.go spaces its synthetic chain by it.
	StakeTargetSpacing int64

	// TargetTimespan bounds retarget smoothing; unused by the kernel
	// itself but carried because every consensus-params bundle in the
	// pack carries it alongside the stake-specific fields.
	TargetTimespan int64

	// ProtocolV3Activation reports whether height has crossed the
	// protocol-v3 boundary, after which KernelHashV2 and modifier-v2
	// chaining replace the v1 scheme.
	ProtocolV3Activation func(height int32) bool

	// ModifierCheckpoints hard-codes known-good stake modifier
	// checksums at specific heights, the same defense pattern as
	// checkpoints.go's block-hash checkpoints but for modifiers.
	ModifierCheckpoints map[int32]uint32

	// CoinbaseMaturity is the number of confirmations a coinbase or
	// coinstake output needs before it can be spent as a staking input.
	CoinbaseMaturity int32

	// StakeTimestampMask defines the timestamp grid under protocol v3:
	// a time t is on the grid when t&StakeTimestampMask == 0, e.g. 0x0f
	// means 16-second boundaries. Off-grid times are rejected, not rounded.
	StakeTimestampMask uint32
}

// MainNetParams mirrors the values pos.cpp's nStakeMinAge/nStakeMaxAge/
// nModifierInterval/nStakeTargetSpacing constants use on the production
// network.
var MainNetParams = ConsensusParams{
	Name:                "mainnet",
	StakeMinAge:         60 * 60 * 24 * 30, // 30 days
	StakeMaxAge:         60 * 60 * 24 * 90, // 90 days
	ModifierInterval:    6 * 60 * 60,       // 6 hours
	StakeTargetSpacing:  60,
	TargetTimespan:      7 * 24 * 60 * 60,
	ProtocolV3Activation: func(height int32) bool { return height >= 180000 },
	ModifierCheckpoints: map[int32]uint32{
		0: 0x0e00670b,
	},
	CoinbaseMaturity:   500,
	StakeTimestampMask: 0x0f,
}

// RegTestParams shrinks every window down to sizes a unit test can
// actually construct a chain across, the same role
// chaincfg.RegressionNetParams plays for address/network decoding.
var RegTestParams = ConsensusParams{
	Name:                "regtest",
	StakeMinAge:         60,
	StakeMaxAge:         600,
	ModifierInterval:    60,
	StakeTargetSpacing:  10,
	TargetTimespan:      600,
	ProtocolV3Activation: func(height int32) bool { return height >= 20 },
	ModifierCheckpoints:  map[int32]uint32{},
	CoinbaseMaturity:     6,
	StakeTimestampMask:   0x0f,
}
