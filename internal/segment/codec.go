// Package segment implements the on-disk event storage layer of spec
// section 4.F: an active Builder, a Store owning a range-map and an LRU of
// sealed segments, and selective erasure. Segment files are persisted
// through github.com/grailbio/base/file (the same pluggable local/S3
// backend pamutil.WriteShardIndex/ReadShardIndex use), snappy-compressed
// and length-prefix framed the way encoding/bampair's disk mate shards
// store records -- one framed record per table slice here instead of
// bampair's (fileIdx, sam.Record) pairs.
package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
	"github.com/vastio/vast-core/internal/wire"
)

// MarshalSlice appends the on-disk encoding of a slice -- its layout, ID
// offset, row count, and flattened cell values -- to buf. Exported so the
// cold-archive tier (internal/segment/archive) can reuse the same framing
// without duplicating it.
func MarshalSlice(buf []byte, s tableslice.Slice) []byte { return marshalSlice(buf, s) }

// UnmarshalSlice is MarshalSlice's inverse.
func UnmarshalSlice(buf []byte) (tableslice.Slice, error) { return unmarshalSlice(buf) }

// marshalSlice appends the on-disk encoding of a slice -- its layout, ID
// offset, row count, and flattened cell values -- to buf.
func marshalSlice(buf []byte, s tableslice.Slice) []byte {
	buf = schema.MarshalType(buf, s.Layout)
	buf = binary.AppendUvarint(buf, s.Offset)
	buf = binary.AppendUvarint(buf, uint64(len(s.Rows)))
	for _, row := range s.Rows {
		for _, v := range row {
			buf = wire.Marshal(buf, v)
		}
	}
	return buf
}

// unmarshalSlice is marshalSlice's inverse.
func unmarshalSlice(buf []byte) (tableslice.Slice, error) {
	layout, off, err := schema.UnmarshalType(buf)
	if err != nil {
		return tableslice.Slice{}, fmt.Errorf("segment: format_error: %w", err)
	}
	offset, n := binary.Uvarint(buf[off:])
	if n <= 0 {
		return tableslice.Slice{}, fmt.Errorf("segment: format_error: truncated slice offset")
	}
	off += n
	numRows, n := binary.Uvarint(buf[off:])
	if n <= 0 {
		return tableslice.Slice{}, fmt.Errorf("segment: format_error: truncated slice row count")
	}
	off += n
	width := len(layout.Fields)
	rows := make([][]value.Value, numRows)
	for i := range rows {
		row := make([]value.Value, width)
		for j := range row {
			v, n, err := wire.Unmarshal(buf[off:])
			if err != nil {
				return tableslice.Slice{}, fmt.Errorf("segment: format_error: row %d col %d: %w", i, j, err)
			}
			off += n
			row[j] = v
		}
		rows[i] = row
	}
	return tableslice.Slice{Layout: layout, Rows: rows, Offset: offset}, nil
}
