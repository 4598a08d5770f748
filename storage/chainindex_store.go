// Package storage gives the chain index and the transaction store a
// persistent body: genji backs block records the way the teacher's own
// schemaless CREATE TABLE did for its block/transaction tables, and
// goleveldb backs previous-transaction lookups the way the teacher used
// it for its block-file position index.
package storage

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/genjidb/genji"
	"github.com/genjidb/genji/document"
	"github.com/genjidb/genji/types"
	"github.com/lbryio/lbcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/stakecoin-go/posd/blockchain/model"
)

// ChainIndexStore is a genji-backed blockchain.ChainIndex. It satisfies
// the same interface the in-memory MemChainIndex does, so callers can
// swap one for the other without touching pos package code.
type ChainIndexStore struct {
	db *genji.DB
}

// NewChainIndexStore opens (or creates) a genji database at path and
// ensures the blocks table exists, mirroring storage/db.go's
// "CREATE TABLE blocks" schemaless-table idiom.
func NewChainIndexStore(path string) (*ChainIndexStore, error) {
	db, err := genji.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "storage: opening chain index store")
	}
	if err := db.Exec("CREATE TABLE IF NOT EXISTS blocks (hash TEXT PRIMARY KEY)"); err != nil {
		return nil, errors.Wrap(err, "storage: creating blocks table")
	}
	return &ChainIndexStore{db: db}, nil
}

func (s *ChainIndexStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying genji handle for the debug /sql server.
func (s *ChainIndexStore) DB() *genji.DB {
	return s.db
}

func (s *ChainIndexStore) AddBlock(rec model.BlockRecord) error {
	err := s.db.Exec(`
		INSERT INTO blocks (hash, prev_hash, height, version, time, bits, flags, proof_hash, modifier_v1, modifier_v2, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO REPLACE`,
		rec.Hash.String(), rec.PrevHash.String(), rec.Height, rec.Version, rec.Time.Unix(), rec.Bits,
		uint32(rec.Flags), rec.ProofHash.String(), rec.StakeModifierV1, rec.StakeModifierV2.String(), rec.StakeModifierChecksum,
	)
	if err != nil {
		return errors.Wrapf(err, "storage: inserting block %s", rec.Hash)
	}
	return nil
}

func (s *ChainIndexStore) BlockByHash(hash chainhash.Hash) (model.BlockRecord, bool) {
	res, err := s.db.Query("SELECT * FROM blocks WHERE hash = ?", hash.String())
	if err != nil {
		logrus.Errorf("storage: querying block %s: %+v", hash, err)
		return model.BlockRecord{}, false
	}
	defer res.Close()

	var rec model.BlockRecord
	found := false
	err = res.Iterate(func(d types.Document) error {
		found = true
		return scanBlockRecord(d, &rec)
	})
	if err != nil {
		logrus.Errorf("storage: scanning block %s: %+v", hash, err)
		return model.BlockRecord{}, false
	}
	return rec, found
}

func (s *ChainIndexStore) BlockByHeight(height int32) (model.BlockRecord, bool) {
	res, err := s.db.Query("SELECT * FROM blocks WHERE height = ?", height)
	if err != nil {
		logrus.Errorf("storage: querying height %d: %+v", height, err)
		return model.BlockRecord{}, false
	}
	defer res.Close()

	var rec model.BlockRecord
	found := false
	err = res.Iterate(func(d types.Document) error {
		found = true
		return scanBlockRecord(d, &rec)
	})
	if err != nil {
		logrus.Errorf("storage: scanning height %d: %+v", height, err)
		return model.BlockRecord{}, false
	}
	return rec, found
}

func (s *ChainIndexStore) Tip() (model.BlockRecord, bool) {
	res, err := s.db.Query("SELECT * FROM blocks ORDER BY height DESC LIMIT 1")
	if err != nil {
		logrus.Errorf("storage: querying tip: %+v", err)
		return model.BlockRecord{}, false
	}
	defer res.Close()

	var rec model.BlockRecord
	found := false
	err = res.Iterate(func(d types.Document) error {
		found = true
		return scanBlockRecord(d, &rec)
	})
	if err != nil {
		logrus.Errorf("storage: scanning tip: %+v", err)
		return model.BlockRecord{}, false
	}
	return rec, found
}

func scanBlockRecord(d types.Document, rec *model.BlockRecord) error {
	var m struct {
		Hash       string `genji:"hash"`
		PrevHash   string `genji:"prev_hash"`
		Height     int32  `genji:"height"`
		Version    int32  `genji:"version"`
		Time       int64  `genji:"time"`
		Bits       uint32 `genji:"bits"`
		Flags      uint32 `genji:"flags"`
		ProofHash  string `genji:"proof_hash"`
		ModifierV1 uint64 `genji:"modifier_v1"`
		ModifierV2 string `genji:"modifier_v2"`
		Checksum   uint32 `genji:"checksum"`
	}
	if err := document.StructScan(d, &m); err != nil {
		return err
	}

	hash, err := chainhash.NewHashFromStr(m.Hash)
	if err != nil {
		return err
	}
	prevHash, err := chainhash.NewHashFromStr(m.PrevHash)
	if err != nil {
		return err
	}
	modV2, err := chainhash.NewHashFromStr(m.ModifierV2)
	if err != nil {
		return err
	}
	proofHash, err := chainhash.NewHashFromStr(m.ProofHash)
	if err != nil {
		return err
	}

	rec.Hash = *hash
	rec.PrevHash = *prevHash
	rec.Height = m.Height
	rec.Version = m.Version
	rec.Bits = m.Bits
	rec.Flags = model.BlockFlags(m.Flags)
	rec.ProofHash = *proofHash
	rec.StakeModifierV1 = m.ModifierV1
	rec.StakeModifierV2 = *modV2
	rec.StakeModifierChecksum = m.Checksum
	rec.Time = time.Unix(m.Time, 0)
	return nil
}
