// Package pos implements the proof-of-stake kernel: coin-age weighting,
// the 64-round stake-modifier selection algorithm, the v1/v2 kernel
// hashes, and the validator that ties them together. Every function
// here is pure given its ChainIndex/TxStore arguments — no package-level
// state is kept, mirroring the "no mapBlockIndex singleton" guidance
// the rest of this module's design follows.
package pos

import (
	"fmt"
	"sort"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/valyala/bytebufferpool"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
)

// ModifierIntervalRatio is fixed at 3 across every protocol version,
// per §6 of the consensus parameter table.
const ModifierIntervalRatio = 3

// sectionLength returns the length, in seconds, of selection-interval
// section i of 64, per §4.2 step 3.
func sectionLength(modifierInterval int64, section int) int64 {
	return modifierInterval * 63 / (63 + int64(63-section)*(ModifierIntervalRatio-1))
}

// SelectionIntervalTotal sums all 64 section lengths, the window of
// ancestor blocks a modifier recomputation can ever look at.
func SelectionIntervalTotal(modifierInterval int64) int64 {
	var total int64
	for i := 0; i < 64; i++ {
		total += sectionLength(modifierInterval, i)
	}
	return total
}

func epoch(t int64, modifierInterval int64) int64 {
	return t / modifierInterval
}

type candidate struct {
	hash      chainhash.Hash // the block's own hash, used only as the (time, hash) sort tie-break
	proofHash chainhash.Hash // kernel hash for PoS, block hash for PoW — what actually goes into selectionHash
	time      int64
	entropy   uint32
	isPoS     bool
	selected  bool
}

// findLastGenerator walks prev.PrevHash back from start until it finds
// a block with a generated modifier (always terminates at genesis,
// which is indexed with FlagStakeModifier set and StakeModifierV1 0).
func findLastGenerator(idx blockchain.ChainIndex, start model.BlockRecord) model.BlockRecord {
	cur := start
	for !cur.Flags.HasStakeModifier() {
		prev, ok := idx.BlockByHash(cur.PrevHash)
		if !ok {
			panic(fmt.Sprintf("pos: chain index missing ancestor %s while searching for last stake modifier generator", cur.PrevHash))
		}
		cur = prev
	}
	return cur
}

// ComputeNextStakeModifier implements §4.2 in full: epoch-stability
// short circuit, candidate collection, 64 selection rounds, and bit
// accumulation. It also returns a debug selection map in the same
// shape the original kernel logs under the "stakemodifier" category:
// one character per candidate, '-' for unselected, 'W' for a
// proof-of-work round winner and 'w' for a proof-of-stake one, in
// chronological order.
//
// generated is true whenever the function successfully produces a
// modifier at all (per the spec's Testable Property 3, this is true
// even when the value is only carried forward unchanged). recomputed
// is the separate, caller-facing signal of whether the 64-round
// selection actually ran at this block — it is what gets persisted as
// BlockRecord.generated_modifier, since that is what
// KernelStakeModifierLookup and findLastGenerator need to walk past
// carried-forward blocks to the block that actually set the value.
func ComputeNextStakeModifier(idx blockchain.ChainIndex, prev model.BlockRecord, params blockchain.ConsensusParams) (modifier uint64, generated bool, recomputed bool, selectionMap string, err error) {
	if prev.Height == 0 {
		return 0, true, true, "", nil
	}

	lastGen := findLastGenerator(idx, prev)
	if epoch(prev.Time.Unix(), params.ModifierInterval) <= epoch(lastGen.Time.Unix(), params.ModifierInterval) {
		return lastGen.StakeModifierV1, true, false, "", nil
	}

	selectionIntervalTotal := SelectionIntervalTotal(params.ModifierInterval)
	selectionIntervalStart := (prev.Time.Unix()/params.ModifierInterval)*params.ModifierInterval - selectionIntervalTotal

	var candidates []candidate
	cur := prev
	for cur.Time.Unix() >= selectionIntervalStart {
		candidates = append(candidates, candidate{
			hash:      cur.Hash,
			proofHash: cur.ProofHash,
			time:      cur.Time.Unix(),
			entropy:   cur.Flags.EntropyBit(),
			isPoS:     cur.Flags.IsProofOfStake(),
		})
		if cur.Height == 0 {
			break
		}
		prevRec, ok := idx.BlockByHash(cur.PrevHash)
		if !ok {
			panic(fmt.Sprintf("pos: chain index missing ancestor %s while collecting modifier candidates", cur.PrevHash))
		}
		cur = prevRec
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].time != candidates[j].time {
			return candidates[i].time < candidates[j].time
		}
		return lessHash(candidates[i].hash, candidates[j].hash)
	})

	selMap := make([]byte, len(candidates))
	for i := range selMap {
		selMap[i] = '-'
	}

	var newModifier uint64
	var stop int64 = selectionIntervalStart

	for round := 0; round < 64 && round < len(candidates); round++ {
		stop += sectionLength(params.ModifierInterval, round)

		bestIdx := -1
		var bestHash chainhash.Hash
		foundInRound := false
		for i := range candidates {
			c := &candidates[i]
			if c.selected {
				continue
			}
			// Only stop the scan once something's been found and we've
			// passed stop; otherwise the earliest remaining candidate
			// wins by default even if it's outside the window.
			if foundInRound && c.time > stop {
				break
			}

			h := selectionHash(c.proofHash, lastGen.StakeModifierV1, c.isPoS)
			if !foundInRound {
				foundInRound = true
				bestHash = h
				bestIdx = i
			} else if lessHash(h, bestHash) {
				bestHash = h
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			panic("pos: stake modifier selection round found no unselected candidate")
		}

		candidates[bestIdx].selected = true
		selMap[bestIdx] = 'W'
		if candidates[bestIdx].isPoS {
			selMap[bestIdx] = 'w'
		}
		newModifier |= uint64(candidates[bestIdx].entropy) << uint(round)
	}

	return newModifier, true, true, string(selMap), nil
}

// selectionHash computes the per-round selection key for a candidate:
// SHA256d(proofHash ‖ prevModifier), both little-endian, right-shifted
// 32 bits for PoS candidates so they always win ties against PoW ones.
func selectionHash(proofHash chainhash.Hash, prevModifier uint64, isPoS bool) chainhash.Hash {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLE(buf, proofHash[:])
	writeLE(buf, prevModifier)

	sum := chainhash.DoubleHashB(buf.Bytes())
	var h chainhash.Hash
	copy(h[:], sum)

	if isPoS {
		h = shiftRight32(h)
	}
	return h
}

// shiftRight32 right-shifts a little-endian 256-bit value by 32 bits,
// i.e. drops the low 4 bytes and shifts the rest down.
func shiftRight32(h chainhash.Hash) chainhash.Hash {
	var out chainhash.Hash
	copy(out[:len(out)-4], h[4:])
	return out
}

// lessHash compares two hashes as little-endian 256-bit unsigned
// integers, the tie-breaker §4.2/§9 requires after a (time, hash)
// stable sort.
func lessHash(a, b chainhash.Hash) bool {
	return leToBig(a[:]).Cmp(leToBig(b[:])) < 0
}

// KernelStakeModifierLookup implements §4.3: walk forward from
// blockFrom toward tip and return the modifier of the first generator
// block at or past blockFrom.time + selection_interval_total.
func KernelStakeModifierLookup(idx blockchain.ChainIndex, blockFrom model.BlockRecord, tip model.BlockRecord, params blockchain.ConsensusParams, now int64) (uint64, error) {
	selectionIntervalTotal := SelectionIntervalTotal(params.ModifierInterval)
	threshold := blockFrom.Time.Unix() + selectionIntervalTotal

	// blockFrom must actually sit on tip's ancestry line — a reorg that
	// moved tip onto a different branch since blockFrom was looked up
	// would otherwise send the walk below straight past genesis.
	anchor, ok := blockchain.Ancestor(idx, tip, blockFrom.Height)
	if !ok || anchor.Hash != blockFrom.Hash {
		return 0, blockchain.NewConsensusError(100, "pos: block-from %s is not an ancestor of the current tip", blockFrom.Hash)
	}

	var chain []model.BlockRecord
	cur := tip
	for cur.Hash != blockFrom.Hash {
		chain = append(chain, cur)
		prev, ok := idx.BlockByHash(cur.PrevHash)
		if !ok {
			panic(fmt.Sprintf("pos: chain index missing ancestor %s during kernel modifier lookup", cur.PrevHash))
		}
		cur = prev
	}
	chain = append(chain, blockFrom)

	for i := len(chain) - 1; i >= 0; i-- {
		b := chain[i]
		if b.Time.Unix() >= threshold && b.Flags.HasStakeModifier() {
			return b.StakeModifierV1, nil
		}
	}

	if blockFrom.Time.Unix() < now-(int64(params.StakeMinAge)-selectionIntervalTotal) {
		return 0, blockchain.ErrBlockChainBehind
	}
	return 0, blockchain.ErrTryAgainLater
}
