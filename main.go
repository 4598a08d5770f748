package main

import (
	"time"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/stakecoin-go/posd/blockchain"
	"github.com/stakecoin-go/posd/blockchain/model"
	"github.com/stakecoin-go/posd/blockchain/pos"
	"github.com/stakecoin-go/posd/loader"
	"github.com/stakecoin-go/posd/server"
	"github.com/stakecoin-go/posd/storage"
)

func main() {
	defer profile.Start(profile.MemProfile).Stop()
	//logrus.SetLevel(logrus.DebugLevel)

	idx, err := storage.NewChainIndexStore(":memory:")
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
	defer idx.Close()

	server.Start(":8855", idx.DB(), idx)

	params := blockchain.RegTestParams
	records := syntheticChain(2200, params)

	if err := loader.BuildChainIndex(idx, params, records); err != nil {
		logrus.Fatalf("%+v", err)
	}

	tip, ok := idx.Tip()
	if !ok {
		logrus.Fatal("no tip after ingesting synthetic chain")
	}

	modifier, generated, _, selMap, err := pos.ComputeNextStakeModifier(idx, tip, params)
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
	logrus.Infof("next stake modifier at height %d: %#016x (generated=%v)", tip.Height, modifier, generated)
	if selMap != "" {
		logrus.Debugf("stakemodifier: selection map %s", selMap)
	}

	logrus.Printf("done")
}

// syntheticChain builds a deterministic proof-of-work-only chain so
// the demo has something to feed through the modifier algorithm
// without needing a real block source wired up.
func syntheticChain(n int, params blockchain.ConsensusParams) []model.BlockRecord {
	records := make([]model.BlockRecord, 0, n+1)
	genesis := model.BlockRecord{
		Hash:  chainhash.HashH([]byte("genesis")),
		Time:  time.Unix(1231006505, 0),
		Bits:  0x1d00ffff,
		Flags: model.FlagStakeModifier,
	}
	records = append(records, genesis)

	prevHash := genesis.Hash
	prevTime := genesis.Time.Unix()
	for h := int32(1); h <= int32(n); h++ {
		t := prevTime + params.StakeTargetSpacing
		rec := model.BlockRecord{
			Hash:     chainhash.HashH(prevHash[:]),
			PrevHash: prevHash,
			Height:   h,
			Time:     time.Unix(t, 0),
			Bits:     0x1d00ffff,
		}
		records = append(records, rec)
		prevHash = rec.Hash
		prevTime = t
	}
	return records
}
