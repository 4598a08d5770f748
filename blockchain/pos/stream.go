package pos

import (
	"encoding/binary"

	"github.com/valyala/bytebufferpool"
)

// writeLE appends the little-endian encoding of v to buf. Mirrors the
// writeElement type-switch idiom every kernel.go port in the ecosystem
// uses to build its hash streams, but writes into a pooled buffer
// instead of an io.Writer since this runs in the hottest loop in the
// whole subsystem (64 rounds × thousands of candidates).
func writeLE(buf *bytebufferpool.ByteBuffer, v interface{}) {
	var scratch [32]byte
	switch e := v.(type) {
	case uint32:
		binary.LittleEndian.PutUint32(scratch[:4], e)
		buf.Write(scratch[:4])
	case uint64:
		binary.LittleEndian.PutUint64(scratch[:8], e)
		buf.Write(scratch[:8])
	case []byte:
		buf.Write(e)
	default:
		panic("pos: writeLE: unsupported type")
	}
}
