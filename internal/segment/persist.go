package segment

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/grailbio/base/file"

	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/vasterr"
)

// pathOf returns "dir/segment/<uuid>", spec section 6's on-disk layout
// entry for a sealed segment.
func pathOf(dir string, id uuid.UUID) string {
	return fmt.Sprintf("%s/segment/%s", dir, id)
}

// Write persists s to dir/segment/<uuid> as a snappy-compressed stream of
// length-prefixed records -- one checksum record followed by one record
// per slice -- the same length-prefixed-record-inside-a-snappy-stream
// framing encoding/bampair's disk mate shards use, with a seahash digest of
// the concatenated slice payloads standing in for that format's implicit
// per-shard trust (a fresh shard file, never corrupted in place).
func Write(ctx context.Context, dir string, s *Segment) (err error) {
	path := pathOf(dir, s.UUID)
	out, err := file.Create(ctx, path)
	if err != nil {
		return vasterr.E(vasterr.FilesystemError, "create segment file "+path, err)
	}
	defer file.CloseAndReport(ctx, out, &err)

	w := snappy.NewBufferedWriter(out.Writer(ctx))

	var digest []byte
	payloads := make([][]byte, len(s.Slices))
	for i, sl := range s.Slices {
		rec := marshalSlice(nil, sl)
		payloads[i] = rec
		digest = append(digest, rec...)
	}
	sum := seahash.Sum64(digest)

	var sumRec [8]byte
	binary.LittleEndian.PutUint64(sumRec[:], sum)
	if err := writeFramed(w, sumRec[:]); err != nil {
		return vasterr.E(vasterr.FilesystemError, "write segment checksum "+path, err)
	}
	for _, rec := range payloads {
		if err := writeFramed(w, rec); err != nil {
			return vasterr.E(vasterr.FilesystemError, "write segment record "+path, err)
		}
	}
	if err := w.Close(); err != nil {
		return vasterr.E(vasterr.FilesystemError, "finish segment file "+path, err)
	}
	return nil
}

func writeFramed(w io.Writer, rec []byte) error {
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(rec)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(rec)
	return err
}

func readFramed(r *bufio.Reader) ([]byte, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read loads and verifies the segment stored at dir/segment/<uuid>.
func Read(ctx context.Context, dir string, id uuid.UUID) (seg *Segment, err error) {
	path := pathOf(dir, id)
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, vasterr.E(vasterr.FilesystemError, "open segment file "+path, err)
	}
	defer file.CloseAndReport(ctx, in, &err)

	r := bufio.NewReader(snappy.NewReader(in.Reader(ctx)))

	sumBuf, err := readFramed(r)
	if err != nil {
		return nil, vasterr.E(vasterr.FormatError, "segment file "+path+" has no checksum record", err)
	}
	if len(sumBuf) != 8 {
		return nil, vasterr.E(vasterr.FormatError, "segment file "+path+": malformed checksum record", nil)
	}
	wantSum := binary.LittleEndian.Uint64(sumBuf)

	var digest []byte
	var slices []tableslice.Slice
	for {
		rec, err := readFramed(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, vasterr.E(vasterr.FormatError, "segment file "+path+": truncated", err)
		}
		digest = append(digest, rec...)
		sl, err := unmarshalSlice(rec)
		if err != nil {
			return nil, vasterr.E(vasterr.FormatError, "segment file "+path+": corrupt slice record", err)
		}
		slices = append(slices, sl)
	}
	if gotSum := seahash.Sum64(digest); gotSum != wantSum {
		return nil, vasterr.E(vasterr.FormatError, fmt.Sprintf("segment file %s: checksum mismatch (want %x, got %x)", path, wantSum, gotSum), nil)
	}
	return &Segment{UUID: id, Slices: slices}, nil
}

// Remove deletes the file backing a sealed segment's UUID.
func Remove(ctx context.Context, dir string, id uuid.UUID) error {
	return file.Remove(ctx, pathOf(dir, id))
}
