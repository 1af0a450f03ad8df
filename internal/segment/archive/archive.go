// Package archive implements the segment store's optional cold-storage
// tier: a sealed segment may be pushed to an object store instead of (or
// in addition to) being kept under the local state directory. The "s3://"
// scheme is registered into github.com/grailbio/base/file's implementation
// table exactly the way encoding/bamprovider's tests wire one in for
// integration tests, so internal/segment's own Read/Write never need to
// know a destination is remote -- only Push/Pull here import aws-sdk-go
// directly.
package archive

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/uuid"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/klauspost/compress/zstd"

	"github.com/vastio/vast-core/internal/segment"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/vasterr"
)

// Register installs the "s3://" file.Implementation backed by region, so
// any file.Create/file.Open caller (here, Push/Pull) can address S3
// objects without the rest of the module importing aws-sdk-go.
func Register(region string) {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{
			Config: aws.Config{Region: aws.String(region)},
		}), s3file.Options{})
	})
}

// Path returns the archive destination for a sealed segment:
// s3://bucket[/prefix]/<uuid>.
func Path(bucket, prefix string, id uuid.UUID) string {
	if prefix == "" {
		return fmt.Sprintf("s3://%s/%s", bucket, id)
	}
	return fmt.Sprintf("s3://%s/%s/%s", bucket, prefix, id)
}

// Push reads the sealed segment at dir/segment/<uuid> and re-encodes it,
// zstd compressed, at dest. This is a separate codec from the hot local
// path's snappy framing (internal/segment.Write): archive objects are
// written once and read rarely, so trading slower compression for a
// smaller footprint in cold storage is the right tradeoff, the same one
// the teacher's PAM writer makes by defaulting Transformers to zstd while
// bampair's higher-churn shard files use snappy.
func Push(ctx context.Context, dir string, id uuid.UUID, dest string) (err error) {
	seg, err := segment.Read(ctx, dir, id)
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, dest)
	if err != nil {
		return vasterr.E(vasterr.FilesystemError, "create archive object "+dest, err)
	}
	defer file.CloseAndReport(ctx, out, &err)

	zw, err := zstd.NewWriter(out.Writer(ctx))
	if err != nil {
		return vasterr.E(vasterr.FilesystemError, "start zstd encoder for "+dest, err)
	}
	for _, sl := range seg.Slices {
		rec := segment.MarshalSlice(nil, sl)
		if err := writeFramed(zw, rec); err != nil {
			zw.Close()
			return vasterr.E(vasterr.FilesystemError, "write archive object "+dest, err)
		}
	}
	if err := zw.Close(); err != nil {
		return vasterr.E(vasterr.FilesystemError, "finish archive object "+dest, err)
	}
	return nil
}

// Pull retrieves and decodes the segment archived at src.
func Pull(ctx context.Context, id uuid.UUID, src string) (seg *segment.Segment, err error) {
	in, err := file.Open(ctx, src)
	if err != nil {
		return nil, vasterr.E(vasterr.FilesystemError, "open archive object "+src, err)
	}
	defer file.CloseAndReport(ctx, in, &err)

	zr, err := zstd.NewReader(in.Reader(ctx))
	if err != nil {
		return nil, vasterr.E(vasterr.FormatError, "start zstd decoder for "+src, err)
	}
	defer zr.Close()

	r := bufio.NewReader(zr)
	var slices []tableslice.Slice
	for {
		rec, err := readFramed(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, vasterr.E(vasterr.FormatError, "archive object "+src+": truncated", err)
		}
		sl, err := segment.UnmarshalSlice(rec)
		if err != nil {
			return nil, vasterr.E(vasterr.FormatError, "archive object "+src+": corrupt slice record", err)
		}
		slices = append(slices, sl)
	}
	return &segment.Segment{UUID: id, Slices: slices}, nil
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
