package loader

import (
	"testing"
	"time"

	"github.com/lbryio/lbcd/chaincfg/chainhash"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
	"github.com/stakecoin-go/posd/blockchain/txstore"
)

func hashFromByte(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestBuildChainIndexRejectsOffGridStakeBlockUnderV3(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams
	params.ProtocolV3Activation = func(height int32) bool { return true }

	genesis := model.BlockRecord{Hash: hashFromByte(1), Height: 0, Time: time.Unix(0, 0), Flags: model.FlagStakeModifier}

	offGrid := model.BlockRecord{
		Hash:     hashFromByte(2),
		PrevHash: genesis.Hash,
		Height:   1,
		Time:     time.Unix(5, 0), // not aligned to the 0x0f mask
		Flags:    model.FlagProofOfStake,
	}

	err := BuildChainIndex(idx, params, []model.BlockRecord{genesis, offGrid})
	if err == nil {
		t.Fatal("expected an error for a proof-of-stake block whose timestamp is off the stake grid")
	}
}

func TestBuildChainIndexSetsEntropyBitFromBlockHash(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams

	even := hashFromByte(2) // low byte 0x02, entropy bit 0
	odd := hashFromByte(3)  // low byte 0x03, entropy bit 1

	genesis := model.BlockRecord{Hash: even, Height: 0, Flags: model.FlagStakeModifier}
	next := model.BlockRecord{Hash: odd, PrevHash: genesis.Hash, Height: 1, Time: time.Unix(600, 0)}

	if err := BuildChainIndex(idx, params, []model.BlockRecord{genesis, next}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotGenesis, ok := idx.BlockByHash(even)
	if !ok || gotGenesis.Flags&model.FlagStakeEntropy != 0 {
		t.Fatalf("expected genesis entropy bit 0, got flags %#x", gotGenesis.Flags)
	}
	gotNext, ok := idx.BlockByHash(odd)
	if !ok || gotNext.Flags&model.FlagStakeEntropy == 0 {
		t.Fatalf("expected next block entropy bit 1, got flags %#x", gotNext.Flags)
	}
}

func TestVerifyCoinstakesSpendsStakeInputOnSuccess(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	txs := txstore.NewMemStore()
	params := blockchain.ConsensusParams{
		CoinbaseMaturity:     1,
		ProtocolV3Activation: func(height int32) bool { return true },
	}
	clock := blockchain.SystemClock{}

	fromBlock := model.BlockRecord{Hash: hashFromByte(1), Height: 1, Time: time.Unix(1000, 0)}
	idx.AddBlock(fromBlock)
	tip := model.BlockRecord{Hash: hashFromByte(2), PrevHash: fromBlock.Hash, Height: 2, Time: time.Unix(2000, 0)}
	idx.AddBlock(tip)

	txPrev := model.Transaction{
		Hash:      hashFromByte(3),
		BlockHash: fromBlock.Hash,
		Time:      time.Unix(1000, 0),
		Outputs:   []model.Output{{Amount: 10 * 100000000}},
	}
	txs.Put(txPrev, fromBlock.Height, fromBlock.Time.Unix())

	coinstake := model.Transaction{
		Hash: hashFromByte(4),
		Time: time.Unix(2600, 0),
		Inputs: []model.Input{
			{PrevOut: model.OutPoint{Hash: txPrev.Hash, Index: 0}, ScriptSig: []byte{0x51}}, // OP_1, trivially true against an empty pkScript
		},
		Outputs: []model.Output{{Amount: 0}, {Amount: 10 * 100000000}},
	}

	// nBits decodes to a target far larger than any 256-bit hash, under
	// protocol v3's un-weighted target*valueIn, so acceptance is certain
	// and the only thing left to check is that the stake input got spent.
	candidates := []CoinstakeCandidate{{Tip: tip, Tx: coinstake, NBits: 0x227fffff}}
	errs := VerifyCoinstakes(idx, txs, clock, params, candidates, 1)
	if errs[0] != nil {
		t.Fatalf("unexpected error: %v", errs[0])
	}

	if _, _, _, ok := txs.Get(model.OutPoint{Hash: txPrev.Hash, Index: 0}); ok {
		t.Fatal("expected the stake input to be marked spent after a successful verification")
	}
}

func TestBuildChainIndexAcceptsOnGridStakeBlockUnderV3(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams
	params.ProtocolV3Activation = func(height int32) bool { return true }

	genesis := model.BlockRecord{Hash: hashFromByte(1), Height: 0, Time: time.Unix(0, 0), Flags: model.FlagStakeModifier}

	onGrid := model.BlockRecord{
		Hash:     hashFromByte(2),
		PrevHash: genesis.Hash,
		Height:   1,
		Time:     time.Unix(16, 0), // 16 & 0x0f == 0
		Flags:    model.FlagProofOfStake,
	}

	if err := BuildChainIndex(idx, params, []model.BlockRecord{genesis, onGrid}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
