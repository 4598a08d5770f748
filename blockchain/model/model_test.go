package model

import (
	"testing"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
)

func TestEntropyBitFromHashReadsLowBitLittleEndian(t *testing.T) {
	var even chainhash.Hash
	even[0] = 0x02
	if EntropyBitFromHash(even) {
		t.Fatalf("expected entropy bit 0 for low byte %#x", even[0])
	}

	var odd chainhash.Hash
	odd[0] = 0x03
	if !EntropyBitFromHash(odd) {
		t.Fatalf("expected entropy bit 1 for low byte %#x", odd[0])
	}
}
