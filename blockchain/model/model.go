// Package model holds the plain data types that flow between the chain
// index, the transaction store and the pos package. None of these types
// carry behavior of their own; they exist so the consensus code never has
// to reach into wire-format or on-disk structures directly.
package model

import (
	"time"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/lbryio/lbcutil"
)

// BlockRecord is the chain-index's view of a block: enough to walk
// ancestry and run the stake-modifier algorithm, never the full block body.
type BlockRecord struct {
	Hash     chainhash.Hash
	PrevHash chainhash.Hash
	Height   int32
	Version  int32
	Time     time.Time
	Bits     uint32
	Flags    BlockFlags
	// ProofHash is the block's kernel hash for a proof-of-stake block, or
	// the block hash itself for proof of work. Everything that feeds a
	// block's own hash into the stake-modifier chain — selection rounds,
	// checksum chaining — reads this field, never Hash directly.
	ProofHash             chainhash.Hash
	StakeModifierV1       uint64
	StakeModifierV2       chainhash.Hash
	StakeModifierChecksum uint32
}

// BlockFlags records the per-block PoS bookkeeping the original kernel
// keeps alongside each index entry.
type BlockFlags uint32

const (
	// FlagProofOfStake marks a block as minted by a stake kernel rather
	// than mined by proof of work.
	FlagProofOfStake BlockFlags = 1 << 0
	// FlagStakeEntropy carries the low bit of the block hash, consumed
	// by the 64-round v1 selection algorithm.
	FlagStakeEntropy BlockFlags = 1 << 1
	// FlagStakeModifier marks a block at which the v1 stake modifier was
	// recomputed by the selection algorithm (genesis included); blocks
	// that carry the previous modifier forward leave it clear.
	FlagStakeModifier BlockFlags = 1 << 2
)

func (f BlockFlags) IsProofOfStake() bool { return f&FlagProofOfStake != 0 }
func (f BlockFlags) EntropyBit() uint32 {
	if f&FlagStakeEntropy != 0 {
		return 1
	}
	return 0
}
func (f BlockFlags) HasStakeModifier() bool { return f&FlagStakeModifier != 0 }

// EntropyBitFromHash returns the low bit of hash read as a
// little-endian 256-bit integer — chainhash.Hash already stores its
// bytes in that order, so this is just hash[0]'s low bit. Callers set
// FlagStakeEntropy on a BlockRecord from this before indexing it.
func EntropyBitFromHash(hash chainhash.Hash) bool {
	return hash[0]&1 != 0
}

// Transaction is the subset of a transaction the kernel and coin-age
// calculations need: its own identity, timing, and inputs/outputs.
type Transaction struct {
	Hash      chainhash.Hash
	BlockHash chainhash.Hash
	Version   uint32
	Time      time.Time
	Inputs    []Input
	Outputs   []Output
	// Offset is this transaction's byte offset within its containing
	// block's serialized body, the tx_prev_offset the v1 kernel hash
	// mixes in when this transaction is spent as a stake input.
	Offset uint32
}

// IsCoinBase reports whether this transaction is the block's coinbase,
// mirroring the all-zero, max-index previous outpoint convention.
func (t Transaction) IsCoinBase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PrevOut.Hash.IsEqual(&chainhash.Hash{}) && t.Inputs[0].PrevOut.Index == 0xffffffff
}

// IsCoinStake reports whether this transaction is a PoS block's first
// transaction: at least one input, at least two outputs, and the first
// output empty (PPCoin/BlackCoin convention carried from original_source).
func (t Transaction) IsCoinStake() bool {
	return len(t.Inputs) >= 1 && len(t.Outputs) >= 2 && len(t.Outputs[0].PKScript) == 0 && t.Outputs[0].Amount == 0
}

// OutPoint identifies a previous transaction output being spent.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Input is a transaction input, referencing the output it spends.
type Input struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
}

// Output is a transaction output.
type Output struct {
	Amount     uint64
	PKScript   []byte
	Address    lbcutil.Address // informational only, never read by the kernel
	ScriptType string
}
