package blockchain

import "github.com/stakecoin-go/posd/blockchain/model"

// HowSuperMajority walks back up to nToCheck ancestors from start and
// counts how many proof-of-stake blocks among them report a version
// at or above minVersion, the same rolling-window adoption poll
// HowSuperMajority performs over blockNode.version. nRequired does not
// cut the walk short; IsSuperMajority compares the count against it. It
// is purely informational: the kernel check never consults it.
func HowSuperMajority(idx ChainIndex, minVersion int32, start model.BlockRecord, nRequired uint64, nToCheck uint64) uint64 {
	var numFound uint64
	cur := start
	for i := uint64(0); i < nToCheck; i++ {
		if cur.Flags.IsProofOfStake() && cur.Version >= minVersion {
			numFound++
		}
		if cur.Height == 0 {
			break
		}
		prev, ok := idx.BlockByHash(cur.PrevHash)
		if !ok {
			break
		}
		cur = prev
	}
	return numFound
}

// IsSuperMajority reports whether at least nRequired proof-of-stake
// blocks among the last nToCheck blocks (of either kind) from start
// report minVersion or higher.
func IsSuperMajority(idx ChainIndex, minVersion int32, start model.BlockRecord, nRequired uint64, nToCheck uint64) bool {
	return HowSuperMajority(idx, minVersion, start, nRequired, nToCheck) >= nRequired
}
