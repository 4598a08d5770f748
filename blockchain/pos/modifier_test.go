package pos

import (
	"testing"
	"time"

	"github.com/lbryio/lbcd/chaincfg/chainhash"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
)

func hashFromByte(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestSectionLengthsSumToSelectionIntervalTotal(t *testing.T) {
	const modifierInterval = 2048
	var sum int64
	for i := 0; i < 64; i++ {
		sum += sectionLength(modifierInterval, i)
	}
	if got := SelectionIntervalTotal(modifierInterval); got != sum {
		t.Fatalf("SelectionIntervalTotal=%d, sum of sections=%d", got, sum)
	}
}

func TestComputeNextStakeModifierGenesis(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	genesis := model.BlockRecord{Hash: hashFromByte(1), Height: 0, Flags: model.FlagStakeModifier}
	idx.AddBlock(genesis)

	modifier, generated, _, _, err := ComputeNextStakeModifier(idx, genesis, blockchain.RegTestParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modifier != 0 || !generated {
		t.Fatalf("expected (0, true) for genesis, got (%d, %v)", modifier, generated)
	}
}

func TestComputeNextStakeModifierEpochStability(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams

	genesis := model.BlockRecord{
		Hash:   hashFromByte(1),
		Height: 0,
		Time:   time.Unix(0, 0),
		Flags:  model.FlagStakeModifier,
	}
	idx.AddBlock(genesis)

	prev := model.BlockRecord{
		Hash:     hashFromByte(2),
		PrevHash: genesis.Hash,
		Height:   1,
		Time:     time.Unix(10, 0), // same epoch as genesis under RegTestParams.ModifierInterval=60
	}
	idx.AddBlock(prev)

	modifier, generated, recomputed, selMap, err := ComputeNextStakeModifier(idx, prev, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !generated {
		t.Fatalf("expected generated=true")
	}
	if recomputed {
		t.Fatalf("expected recomputed=false when carrying the modifier forward")
	}
	if modifier != genesis.StakeModifierV1 {
		t.Fatalf("expected modifier to be carried forward unchanged, got %d", modifier)
	}
	if selMap != "" {
		t.Fatalf("expected selection to be skipped, got selection map %q", selMap)
	}
}

func TestComputeNextStakeModifierSelectionUsesProofHashNotBlockHash(t *testing.T) {
	params := blockchain.ConsensusParams{ModifierInterval: 10000, StakeMinAge: 60, StakeMaxAge: 600}

	// build indexes a genesis generator followed by two PoS candidates
	// whose block hashes and entropy bits (FlagStakeEntropy set from the
	// hash's low bit, as BuildChainIndex does) are fixed across both
	// runs, landing both within round 0's selection window so the round
	// must pick a winner by comparing proof hashes. proofA/proofB are
	// handed to the two candidates in opposite order between the two
	// calls; if the selection algorithm is reading block hash instead of
	// proof hash, swapping them changes nothing and the two runs produce
	// an identical modifier.
	build := func(proofA, proofB chainhash.Hash) uint64 {
		idx := blockchain.NewMemChainIndex()

		total := SelectionIntervalTotal(params.ModifierInterval)
		tipTime := total + 10_000_000
		start := (tipTime/params.ModifierInterval)*params.ModifierInterval - total
		window0 := sectionLength(params.ModifierInterval, 0)

		genesis := model.BlockRecord{Hash: hashFromByte(1), Height: 0, Time: time.Unix(0, 0), Flags: model.FlagStakeModifier}
		idx.AddBlock(genesis)

		c1 := model.BlockRecord{
			Hash: hashFromByte(10), ProofHash: proofA, // even low byte: entropy bit 0
			PrevHash: genesis.Hash, Height: 1, Time: time.Unix(start+window0/3, 0), Flags: model.FlagProofOfStake,
		}
		idx.AddBlock(c1)

		c2 := model.BlockRecord{
			Hash: hashFromByte(11), ProofHash: proofB, // odd low byte: entropy bit 1
			PrevHash: c1.Hash, Height: 2, Time: time.Unix(start+2*window0/3, 0), Flags: model.FlagProofOfStake | model.FlagStakeEntropy,
		}
		idx.AddBlock(c2)

		tip := model.BlockRecord{Hash: hashFromByte(12), PrevHash: c2.Hash, Height: 3, Time: time.Unix(tipTime, 0)}
		idx.AddBlock(tip)

		modifier, _, recomputed, _, err := ComputeNextStakeModifier(idx, tip, params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !recomputed {
			t.Fatalf("expected recomputed=true")
		}
		return modifier & 1 // round 0's winner sets bit 0
	}

	proofX := hashFromByte(30)
	proofY := hashFromByte(31)

	bit1 := build(proofX, proofY)
	bit2 := build(proofY, proofX)

	if bit1 == bit2 {
		t.Fatal("expected swapping the proof hashes between the two candidates (block hashes unchanged) to flip round 0's winner, and hence bit 0 of the resulting modifier")
	}
}

func TestComputeNextStakeModifierFallsBackWhenNoCandidateWithinWindow(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams // ModifierInterval = 60

	genesis := model.BlockRecord{
		Hash:   hashFromByte(1),
		Height: 0,
		Time:   time.Unix(0, 0),
		Flags:  model.FlagStakeModifier,
	}
	idx.AddBlock(genesis)

	// Every candidate lands right at the far end of the selection
	// interval, long after the early rounds' cumulative stop
	// thresholds — none of those rounds have an in-window candidate,
	// which must still fall back to picking the earliest remaining one
	// rather than skipping the round or aborting the rest.
	selectionIntervalTotal := SelectionIntervalTotal(params.ModifierInterval)
	prevTime := selectionIntervalTotal + 1000
	prevHash := genesis.Hash
	var prev model.BlockRecord
	for i := int32(1); i <= 5; i++ {
		prev = model.BlockRecord{
			Hash:     hashFromByte(byte(i + 1)),
			PrevHash: prevHash,
			Height:   i,
			Time:     time.Unix(prevTime+int64(i), 0),
		}
		idx.AddBlock(prev)
		prevHash = prev.Hash
	}

	_, generated, recomputed, selMap, err := ComputeNextStakeModifier(idx, prev, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !generated || !recomputed {
		t.Fatalf("expected generated=true, recomputed=true, got (%v, %v)", generated, recomputed)
	}

	selected := 0
	for _, c := range selMap {
		if c == 'W' || c == 'w' {
			selected++
		}
	}
	if selected != len(selMap) {
		t.Fatalf("expected every one of the %d candidates to be selected across rounds, got %d selected (map %q)", len(selMap), selected, selMap)
	}
}

func TestComputeNextStakeModifierRecomputesAcrossEpoch(t *testing.T) {
	idx := blockchain.NewMemChainIndex()
	params := blockchain.RegTestParams // ModifierInterval = 60

	genesis := model.BlockRecord{
		Hash:   hashFromByte(1),
		Height: 0,
		Time:   time.Unix(0, 0),
		Flags:  model.FlagStakeModifier,
	}
	idx.AddBlock(genesis)

	prevHash := genesis.Hash
	var prev model.BlockRecord
	for i := int32(1); i <= 10; i++ {
		prev = model.BlockRecord{
			Hash:     hashFromByte(byte(i + 1)),
			PrevHash: prevHash,
			Height:   i,
			Time:     time.Unix(int64(i)*100, 0), // crosses many 60s epochs
		}
		idx.AddBlock(prev)
		prevHash = prev.Hash
	}

	modifier, generated, recomputed, selMap, err := ComputeNextStakeModifier(idx, prev, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !generated {
		t.Fatalf("expected generated=true")
	}
	if !recomputed {
		t.Fatalf("expected recomputed=true once the epoch boundary is crossed")
	}
	_ = modifier
	if len(selMap) == 0 {
		t.Fatalf("expected a non-empty selection map once recomputation runs")
	}
	for _, c := range selMap {
		if c != '-' && c != 'W' && c != 'w' {
			t.Fatalf("unexpected selection map character %q", c)
		}
	}
}
