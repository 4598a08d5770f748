// Package script adapts the stake kernel's model.Transaction to the
// lbcd script engine so CheckProofOfStake can confirm a coinstake's
// first input is actually signed by the owner of the coin it claims
// to be spending.
package script

import (
	"github.com/cockroachdb/errors"
	"github.com/lbryio/lbcd/txscript"
	"github.com/lbryio/lbcd/wire"

	"github.com/stakecoin-go/posd/blockchain/model"
)

// VerifySignature runs the script engine over input nIn of tx, proving
// it is authorized to spend prevPKScript. fValidatePayToScriptHash turns
// on BIP16-style P2SH evaluation, matching the flag the original kernel
// threads through from the active soft-fork state.
func VerifySignature(tx model.Transaction, nIn int, prevPKScript []byte, fValidatePayToScriptHash bool) error {
	if nIn < 0 || nIn >= len(tx.Inputs) {
		return errors.Newf("script: input index %d out of range", nIn)
	}

	msgTx := toWireTx(tx)

	var flags txscript.ScriptFlags
	if fValidatePayToScriptHash {
		flags |= txscript.ScriptBip16
	}

	vm, err := txscript.NewEngine(prevPKScript, msgTx, nIn, flags, nil, nil, 0)
	if err != nil {
		return errors.Wrapf(err, "script: building engine for input %d", nIn)
	}
	if err := vm.Execute(); err != nil {
		return errors.Wrapf(err, "script: input %d failed verification", nIn)
	}
	return nil
}

func toWireTx(tx model.Transaction) *wire.MsgTx {
	msgTx := wire.NewMsgTx(int32(tx.Version))
	for _, in := range tx.Inputs {
		msgTx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: in.PrevOut.Hash, Index: in.PrevOut.Index},
			SignatureScript:  in.ScriptSig,
			Sequence:         in.Sequence,
		})
	}
	for _, out := range tx.Outputs {
		msgTx.AddTxOut(&wire.TxOut{Value: int64(out.Amount), PkScript: out.PKScript})
	}
	return msgTx
}
