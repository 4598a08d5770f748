// Package txstore provides the external previous-transaction lookup
// the kernel and CheckProofOfStake need in order to see what a
// coinstake's first input is actually spending.
package txstore

import (
	"sync"

	"github.com/lbryio/lbcd/chaincfg/chainhash"

	"github.com/stakecoin-go/posd/blockchain/model"
)

// Store is the external transaction-store capability: given a previous
// output, it returns the transaction that created it and the height at
// which that transaction was confirmed. CheckProofOfStake uses the
// confirmation height, not the hash-map entry itself, to enforce
// CoinbaseMaturity.
type Store interface {
	Get(outpoint model.OutPoint) (tx model.Transaction, blockHeight int32, blockTime int64, ok bool)
	Put(tx model.Transaction, blockHeight int32, blockTime int64)
	Spend(outpoint model.OutPoint)
}

// MemStore is an in-memory Store, the same UTXOMap/PredeleteMap
// map-of-slices-keyed-by-txid shape balances.go's accountant() goroutine
// used to track spendable outputs, adapted here to index full previous
// transactions rather than just their balances.
type MemStore struct {
	mu sync.RWMutex

	txs map[chainhash.Hash]entry
}

type entry struct {
	tx          model.Transaction
	blockHeight int32
	blockTime   int64
	spent       map[uint32]bool
}

func NewMemStore() *MemStore {
	return &MemStore{txs: make(map[chainhash.Hash]entry)}
}

func (s *MemStore) Get(outpoint model.OutPoint) (model.Transaction, int32, int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.txs[outpoint.Hash]
	if !ok {
		return model.Transaction{}, 0, 0, false
	}
	if int(outpoint.Index) >= len(e.tx.Outputs) {
		return model.Transaction{}, 0, 0, false
	}
	if e.spent[outpoint.Index] {
		return model.Transaction{}, 0, 0, false
	}
	return e.tx, e.blockHeight, e.blockTime, true
}

func (s *MemStore) Put(tx model.Transaction, blockHeight int32, blockTime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.Hash] = entry{tx: tx, blockHeight: blockHeight, blockTime: blockTime, spent: make(map[uint32]bool)}
}

func (s *MemStore) Spend(outpoint model.OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[outpoint.Hash]
	if !ok {
		return
	}
	if e.spent == nil {
		e.spent = make(map[uint32]bool)
	}
	e.spent[outpoint.Index] = true
	s.txs[outpoint.Hash] = e
}
