package blockchain

import (
	"sync"

	"github.com/lbryio/lbcd/chaincfg/chainhash"

	"github.com/stakecoin-go/posd/blockchain/model"
)

// ChainIndex is the external capability the stake kernel leans on to
// walk ancestry: it never touches a database or a network peer itself,
// it only ever asks a ChainIndex for a block by hash or height. This
// keeps compute_next_stake_modifier and friends pure functions of their
// arguments plus whatever ChainIndex implementation the caller wires in,
// rather than reaching for a package-level global the way the original
// kernel's mapBlockIndex does.
type ChainIndex interface {
	BlockByHash(hash chainhash.Hash) (model.BlockRecord, bool)
	BlockByHeight(height int32) (model.BlockRecord, bool)
	Tip() (model.BlockRecord, bool)
	AddBlock(rec model.BlockRecord) error
}

// MemChainIndex is an in-memory ChainIndex, the same map-of-maps shape
// balances.go's UTXOMap/PredeleteMap use to track spendable state
// without a backing store, repurposed here to track block ancestry.
type MemChainIndex struct {
	mu         sync.RWMutex
	byHash     map[chainhash.Hash]model.BlockRecord
	byHeight   map[int32]chainhash.Hash
	tipHeight  int32
	hasTip     bool
}

func NewMemChainIndex() *MemChainIndex {
	return &MemChainIndex{
		byHash:   make(map[chainhash.Hash]model.BlockRecord),
		byHeight: make(map[int32]chainhash.Hash),
	}
}

func (c *MemChainIndex) BlockByHash(hash chainhash.Hash) (model.BlockRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byHash[hash]
	return rec, ok
}

func (c *MemChainIndex) BlockByHeight(height int32) (model.BlockRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.byHeight[height]
	if !ok {
		return model.BlockRecord{}, false
	}
	rec, ok := c.byHash[hash]
	return rec, ok
}

func (c *MemChainIndex) Tip() (model.BlockRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasTip {
		return model.BlockRecord{}, false
	}
	hash := c.byHeight[c.tipHeight]
	rec, ok := c.byHash[hash]
	return rec, ok
}

func (c *MemChainIndex) AddBlock(rec model.BlockRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byHash[rec.Hash] = rec
	c.byHeight[rec.Height] = rec.Hash
	if !c.hasTip || rec.Height > c.tipHeight {
		c.tipHeight = rec.Height
		c.hasTip = true
	}
	return nil
}

// Ancestor walks back from start following PrevHash until it reaches a
// block at or before targetHeight, mirroring the iterNode.parent walk
// the original kernel's GetStakeModifierSelectionIntervalSection and
// SelectBlockFromCandidates loops perform.
func Ancestor(idx ChainIndex, start model.BlockRecord, targetHeight int32) (model.BlockRecord, bool) {
	cur := start
	for cur.Height > targetHeight {
		prev, ok := idx.BlockByHash(cur.PrevHash)
		if !ok {
			return model.BlockRecord{}, false
		}
		cur = prev
	}
	return cur, true
}
