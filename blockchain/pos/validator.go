package pos

import (
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
	"github.com/stakecoin-go/posd/blockchain/script"
	"github.com/stakecoin-go/posd/blockchain/txstore"
)

// CheckKernel runs the v1-or-v2 kernel hash check for a prospective
// stake, per §4.4/§4.5's dispatch rule in §6's check_kernel operation.
// It resolves whichever of modifier-v1 or modifier-v2 the active
// protocol version needs, but does not touch maturity, signatures, or
// timestamps — CheckProofOfStake composes maturity and signature checks
// around it; timestamps are checked separately by CheckCoinstakeTimestamp
// and CheckStakeBlockTimestamp.
func CheckKernel(idx blockchain.ChainIndex, tip model.BlockRecord, nBits uint32, txTime int64, prevout model.OutPoint, txPrev model.Transaction, blockFrom model.BlockRecord, params blockchain.ConsensusParams, now int64) (bool, error) {
	valueIn := int64(txPrev.Outputs[prevout.Index].Amount)

	if params.ProtocolV3Activation(tip.Height + 1) {
		if valueIn <= 0 {
			return false, blockchain.NewConsensusError(1, "pos: zero_value_in")
		}
		_, _, accept := KernelHashV2(tip.StakeModifierV2, txPrev.Time.Unix(), prevout.Hash, prevout.Index, txTime, nBits, valueIn)
		return accept, nil
	}

	modifier, err := KernelStakeModifierLookup(idx, blockFrom, tip, params, now)
	if err != nil {
		return false, err
	}

	// A previous transaction mined by proof of work carries no coinstake
	// timestamp of its own; treat it as having been created at its
	// block's time, same as the weight calculation below.
	txPrevTime := txPrev.Time.Unix()
	if txPrevTime == 0 {
		txPrevTime = blockFrom.Time.Unix()
	}

	weight := CoinAgeWeight(txPrevTime, txTime, params.StakeMinAge, params.StakeMaxAge)
	_, _, accept := KernelHashV1(modifier, blockFrom.Time.Unix(), txPrev.Offset, txPrevTime, prevout.Index, txTime, nBits, valueIn, weight)
	return accept, nil
}

// CheckProofOfStake orchestrates the full §4.7 validation sequence for
// a candidate coinstake transaction against the current tip.
func CheckProofOfStake(idx blockchain.ChainIndex, txs txstore.Store, clock blockchain.Clock, tip model.BlockRecord, tx model.Transaction, nBits uint32, params blockchain.ConsensusParams) error {
	if !tx.IsCoinStake() {
		return blockchain.NewConsensusError(100, "pos: non-coinstake passed to CheckProofOfStake")
	}

	in0 := tx.Inputs[0]
	txPrev, blockHeight, _, ok := txs.Get(in0.PrevOut)
	if !ok {
		return blockchain.NewConsensusError(100, "pos: db_missing: previous transaction %s not found", in0.PrevOut.Hash)
	}

	// The chain index simply hasn't caught up to txPrev's containing
	// block yet — an ordinary race during initial sync, not proof that
	// tx is invalid, so this isn't scored as misbehavior.
	blockFrom, ok := idx.BlockByHash(txPrev.BlockHash)
	if !ok {
		return blockchain.ErrTryAgainLater
	}

	if txPrev.Hash != in0.PrevOut.Hash {
		return blockchain.NewConsensusError(100, "pos: prevout hash mismatch")
	}

	if err := script.VerifySignature(tx, 0, txPrev.Outputs[in0.PrevOut.Index].PKScript, false); err != nil {
		return blockchain.NewConsensusError(100, "pos: signature verification failed: %s", err)
	}

	if tip.Height+1-blockHeight < params.CoinbaseMaturity {
		return blockchain.NewConsensusError(100, "pos: tried to stake at depth %d, maturity not reached", tip.Height+1-blockHeight)
	}

	now := clock.Now().Unix()
	accept, err := CheckKernel(idx, tip, nBits, tx.Time.Unix(), in0.PrevOut, txPrev, blockFrom, params, now)
	if err != nil {
		return err
	}
	if !accept {
		return blockchain.NewConsensusError(1, "pos: kernel hash does not meet target")
	}

	return nil
}

// TransactionGetCoinAge implements §4.8. Its result is informational
// only: callers MUST NOT use it for consensus decisions, because it
// silently skips inputs whose previous transaction cannot be found
// rather than failing closed. A previous transaction whose containing
// block is missing from the chain index is an error.
func TransactionGetCoinAge(txs txstore.Store, idx blockchain.ChainIndex, tx model.Transaction, params blockchain.ConsensusParams) (uint64, error) {
	if tx.IsCoinBase() {
		return 0, nil
	}

	centSeconds := new(big.Int)
	for _, in := range tx.Inputs {
		txPrev, _, _, ok := txs.Get(in.PrevOut)
		if !ok {
			continue
		}
		if tx.Time.Unix() < txPrev.Time.Unix() {
			return 0, errors.New("pos: transaction_get_coin_age: tx time precedes prevout time")
		}

		blockOf, ok := idx.BlockByHash(txPrev.BlockHash)
		if !ok {
			return 0, errors.New("pos: transaction_get_coin_age: containing block of prevout not found")
		}
		if blockOf.Time.Unix()+int64(params.StakeMinAge) > tx.Time.Unix() {
			continue
		}

		valueIn := int64(txPrev.Outputs[in.PrevOut.Index].Amount)
		weight := CoinAgeWeight(txPrev.Time.Unix(), tx.Time.Unix(), params.StakeMinAge, params.StakeMaxAge)
		inCentSeconds := new(big.Int).Mul(big.NewInt(valueIn), big.NewInt(weight))
		centSeconds.Add(centSeconds, inCentSeconds.Div(inCentSeconds, big.NewInt(CENT)))
	}

	coinDays := new(big.Int).Mul(centSeconds, big.NewInt(CENT))
	coinDays.Div(coinDays, big.NewInt(COIN))
	coinDays.Div(coinDays, big.NewInt(86400))
	return coinDays.Uint64(), nil
}
