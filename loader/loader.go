// Package loader builds a ChainIndex from an ordered sequence of block
// records, and fans candidate coinstakes out across a worker pool for
// verification, the same goroutine/channel shape the teacher's own
// loader package used to walk block files.
package loader

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
	"github.com/stakecoin-go/posd/blockchain/pos"
	"github.com/stakecoin-go/posd/blockchain/txstore"
)

// BuildChainIndex ingests records in height order, computing each
// block's stake-modifier-v1 and its running checksum before indexing
// it, so every later lookup sees a fully populated ancestor and any
// hard-coded checkpoint mismatch is caught at ingestion time rather
// than silently. A block's modifier-v2 is a transition the caller runs
// separately with pos.ComputeStakeModifierV2 once that block's own
// kernel hash (for PoS blocks) is known.
func BuildChainIndex(idx blockchain.ChainIndex, params blockchain.ConsensusParams, records []model.BlockRecord) error {
	for i, rec := range records {
		if model.EntropyBitFromHash(rec.Hash) {
			rec.Flags |= model.FlagStakeEntropy
		}

		// A proof-of-work block's proof hash is its own block hash; a
		// proof-of-stake block's proof hash is its kernel hash, which
		// the caller must already have set on rec before handing it to
		// BuildChainIndex, since computing it requires the candidate
		// coinstake and target this function never sees.
		if !rec.Flags.IsProofOfStake() {
			rec.ProofHash = rec.Hash
		}

		if rec.Flags.IsProofOfStake() && !pos.CheckStakeBlockTimestamp(params.ProtocolV3Activation(rec.Height), params.StakeTimestampMask, rec.Time.Unix()) {
			return blockchain.NewConsensusError(100, "loader: block %d timestamp not on the stake grid", rec.Height)
		}

		var parentChecksum uint32
		if rec.Height > 0 {
			parent := mustPrev(idx, rec)
			parentChecksum = parent.StakeModifierChecksum

			modifier, _, recomputed, selMap, err := pos.ComputeNextStakeModifier(idx, parent, params)
			if err != nil {
				return err
			}
			rec.StakeModifierV1 = modifier
			if recomputed {
				rec.Flags |= model.FlagStakeModifier
			}
			if selMap != "" {
				logrus.Debugf("stakemodifier: block %d selection map %s", rec.Height, selMap)
			}
		} else {
			rec.Flags |= model.FlagStakeModifier
		}

		rec.StakeModifierChecksum = pos.ModifierChecksum(parentChecksum, rec.Flags, rec.ProofHash, rec.StakeModifierV1)
		if !pos.CheckStakeModifierCheckpoints(params, rec.Height, rec.StakeModifierChecksum) {
			return blockchain.NewConsensusError(100, "loader: block %d rejected by stake modifier checkpoint", rec.Height)
		}

		if i%1000 == 0 {
			logrus.Infof("loader: indexed block %d", rec.Height)
		}

		if err := idx.AddBlock(rec); err != nil {
			return err
		}
	}
	return nil
}

func mustPrev(idx blockchain.ChainIndex, rec model.BlockRecord) model.BlockRecord {
	prev, ok := idx.BlockByHash(rec.PrevHash)
	if !ok {
		panic("loader: block " + rec.Hash.String() + " references unindexed parent " + rec.PrevHash.String())
	}
	return prev
}

// CoinstakeCandidate pairs a candidate coinstake transaction with the
// tip and target it should be checked against.
type CoinstakeCandidate struct {
	Tip   model.BlockRecord
	Tx    model.Transaction
	NBits uint32
}

// VerifyCoinstakes fans candidates out across workerCount goroutines,
// each independently calling pos.CheckProofOfStake — safe because every
// candidate only reads the already-finalized idx, the same independence
// loader.worker relied on when reading disjoint block files
// concurrently. A candidate that passes has its stake input re-checked
// and marked spent in txs under one lock, so no two candidates can
// stake the same output; the one that loses gets an error.
func VerifyCoinstakes(idx blockchain.ChainIndex, txs txstore.Store, clock blockchain.Clock, params blockchain.ConsensusParams, candidates []CoinstakeCandidate, workerCount int) []error {
	if workerCount < 1 {
		workerCount = 1
	}

	work := make(chan int)
	errs := make([]error, len(candidates))
	var spendMu sync.Mutex

	wg := sync.WaitGroup{}
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			for i := range work {
				c := candidates[i]
				err := pos.CheckProofOfStake(idx, txs, clock, c.Tip, c.Tx, c.NBits, params)
				if err == nil {
					prevOut := c.Tx.Inputs[0].PrevOut
					spendMu.Lock()
					if _, _, _, ok := txs.Get(prevOut); ok {
						txs.Spend(prevOut)
					} else {
						err = blockchain.NewConsensusError(100, "loader: stake input %s:%d already spent", prevOut.Hash, prevOut.Index)
					}
					spendMu.Unlock()
				}
				errs[i] = err
			}
		}(w)
	}

	for i := range candidates {
		work <- i
	}
	close(work)
	wg.Wait()

	return errs
}
