package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/stakecoin-go/posd/blockchain/model"
)

// TxStore is a goleveldb-backed txstore.Store, the same on-disk
// key/value engine the teacher's chain package used to scan its block
// file index, repurposed here to key previous transactions by txid,
// with the confirmation height and time stored beside the transaction
// in the value so CheckProofOfStake's maturity check never needs a
// second lookup.
type TxStore struct {
	db *leveldb.DB
}

// txRecord is what actually gets gob-encoded. model.Output.Address is
// an lbcutil.Address interface and is never populated by anything that
// writes through this store, so gob's nil-interface encoding is the
// only path exercised; a caller that starts populating it for real
// would need to gob.Register the concrete address type first.
type txRecord struct {
	Tx          model.Transaction
	BlockHeight int32
	BlockTime   int64
	Spent       map[uint32]bool
}

func NewTxStore(path string) (*TxStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "storage: opening tx store")
	}
	return &TxStore{db: db}, nil
}

func (s *TxStore) Close() error {
	return s.db.Close()
}

func (s *TxStore) Get(outpoint model.OutPoint) (model.Transaction, int32, int64, bool) {
	raw, err := s.db.Get([]byte(outpoint.Hash.String()), nil)
	if err != nil {
		return model.Transaction{}, 0, 0, false
	}

	var rec txRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return model.Transaction{}, 0, 0, false
	}

	if int(outpoint.Index) >= len(rec.Tx.Outputs) || rec.Spent[outpoint.Index] {
		return model.Transaction{}, 0, 0, false
	}
	return rec.Tx, rec.BlockHeight, rec.BlockTime, true
}

func (s *TxStore) Put(tx model.Transaction, blockHeight int32, blockTime int64) {
	rec := txRecord{Tx: tx, BlockHeight: blockHeight, BlockTime: blockTime, Spent: make(map[uint32]bool)}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		panic(fmt.Sprintf("storage: encoding transaction %s: %v", tx.Hash, err))
	}

	if err := s.db.Put([]byte(tx.Hash.String()), buf.Bytes(), nil); err != nil {
		panic(fmt.Sprintf("storage: writing transaction %s: %v", tx.Hash, err))
	}
}

func (s *TxStore) Spend(outpoint model.OutPoint) {
	raw, err := s.db.Get([]byte(outpoint.Hash.String()), nil)
	if err != nil {
		return
	}

	var rec txRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return
	}
	if rec.Spent == nil {
		rec.Spent = make(map[uint32]bool)
	}
	rec.Spent[outpoint.Index] = true

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return
	}
	_ = s.db.Put([]byte(outpoint.Hash.String()), buf.Bytes(), nil)
}
