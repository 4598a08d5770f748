package pos

import (
	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/valyala/bytebufferpool"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
)

// ModifierChecksum computes the 32-bit running checksum over
// (parent.checksum, flags, proof hash, modifier_v1), the same chain
// getStakeModifierChecksum builds so a hard checkpoint only needs to
// carry one uint32 per height rather than the full 64-bit modifier.
// proofHash is the block's own hash for PoW blocks, or the kernel hash
// for PoS blocks — whichever hashProofOfStake held at indexing time.
func ModifierChecksum(parentChecksum uint32, flags model.BlockFlags, proofHash chainhash.Hash, modifier uint64) uint32 {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLE(buf, parentChecksum)
	writeLE(buf, uint32(flags))
	writeLE(buf, proofHash[:])
	writeLE(buf, modifier)

	sum := chainhash.DoubleHashB(buf.Bytes())
	n := leToBig(sum)
	n.Rsh(n, 256-32)
	return uint32(n.Uint64())
}

// CheckStakeModifierCheckpoints reports whether checksum matches the
// hard-coded checkpoint at height, if one is configured. Heights with
// no checkpoint entry always pass, the same permissive default
// checkStakeModifierCheckpoints uses.
func CheckStakeModifierCheckpoints(params blockchain.ConsensusParams, height int32, checksum uint32) bool {
	want, ok := params.ModifierCheckpoints[height]
	if !ok {
		return true
	}
	return checksum == want
}
