package pos

import (
	"math/big"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/valyala/bytebufferpool"
)

const (
	// COIN and CENT are the satoshi-scaling constants every coin-age
	// and target calculation divides through by.
	COIN = 100000000
	CENT = 1000000
)

// leToBig interprets b, taken in the kernel's little-endian internal
// byte order, as an unsigned 256-bit integer. chainhash.Hash already
// stores its bytes in that order, so this is just a byte reversal
// ahead of big.Int.SetBytes, which expects big-endian input.
func leToBig(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, c := range b {
		rev[len(b)-1-i] = c
	}
	return new(big.Int).SetBytes(rev)
}

// CheckCoinstakeTimestamp enforces §4.5's timestamp rule: under
// protocol v3 the coinstake time must land on the stake-timestamp grid
// and equal the block time exactly; before v3 only the equality holds.
func CheckCoinstakeTimestamp(isV3 bool, stakeTimestampMask uint32, blockTime, txTime int64) bool {
	if isV3 {
		return txTime&int64(stakeTimestampMask) == 0 && blockTime == txTime
	}
	return blockTime == txTime
}

// CheckStakeBlockTimestamp enforces the v3 timestamp grid on a block's
// own time in isolation, independent of any particular transaction.
func CheckStakeBlockTimestamp(isV3 bool, stakeTimestampMask uint32, blockTime int64) bool {
	if isV3 {
		return blockTime&int64(stakeTimestampMask) == 0
	}
	return true
}

// KernelHashV1 computes the pre-protocol-v3 kernel hash and the
// coin-weighted target it must fall under, following §4.4 exactly:
// the hash stream is modifier‖blockFromTime‖txPrevOffset‖txPrevTime‖
// prevoutIndex‖txTime, all little-endian, and the target is
// nBits·valueIn·weight/COIN/86400 computed as a wide multiply
// followed by the two divisions, never divided early.
func KernelHashV1(modifier uint64, blockFromTime int64, txPrevOffset uint32, txPrevTime int64, prevoutIndex uint32, txTime int64, nBits uint32, valueIn int64, weight int64) (hash chainhash.Hash, target *big.Int, accept bool) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLE(buf, modifier)
	writeLE(buf, uint32(blockFromTime))
	writeLE(buf, txPrevOffset)
	writeLE(buf, uint32(txPrevTime))
	writeLE(buf, prevoutIndex)
	writeLE(buf, uint32(txTime))

	sum := chainhash.DoubleHashB(buf.Bytes())
	copy(hash[:], sum)

	target = new(big.Int).Mul(CompactToBig(nBits), big.NewInt(valueIn))
	target.Mul(target, big.NewInt(weight))
	target.Div(target, big.NewInt(COIN))
	target.Div(target, big.NewInt(86400))

	accept = leToBig(hash[:]).Cmp(target) <= 0
	return hash, target, accept
}

// KernelHashV2 computes the protocol-v3 kernel hash per §4.5: the
// stream is modifierV2‖txPrevTime‖prevoutHash‖prevoutIndex‖txTime, and
// the target is simply nBits·valueIn with no coin-age weighting.
func KernelHashV2(modifierV2 chainhash.Hash, txPrevTime int64, prevoutHash chainhash.Hash, prevoutIndex uint32, txTime int64, nBits uint32, valueIn int64) (hash chainhash.Hash, target *big.Int, accept bool) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLE(buf, modifierV2[:])
	writeLE(buf, uint32(txPrevTime))
	writeLE(buf, prevoutHash[:])
	writeLE(buf, prevoutIndex)
	writeLE(buf, uint32(txTime))

	sum := chainhash.DoubleHashB(buf.Bytes())
	copy(hash[:], sum)

	target = new(big.Int).Mul(CompactToBig(nBits), big.NewInt(valueIn))

	accept = leToBig(hash[:]).Cmp(target) <= 0
	return hash, target, accept
}

// ComputeStakeModifierV2 chains the 256-bit modifier per §4.6:
// H(kernel ‖ prev.modifier_v2), both 32 bytes little-endian. Genesis's
// caller is expected to pass the zero hash as prevModifierV2.
func ComputeStakeModifierV2(kernel chainhash.Hash, prevModifierV2 chainhash.Hash) chainhash.Hash {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLE(buf, kernel[:])
	writeLE(buf, prevModifierV2[:])

	sum := chainhash.DoubleHashB(buf.Bytes())
	var out chainhash.Hash
	copy(out[:], sum)
	return out
}
