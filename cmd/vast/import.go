package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"os"
	"sort"

	"github.com/grailbio/base/log"

	"github.com/vastio/vast-core/internal/config"
	"github.com/vastio/vast-core/internal/consensus"
	"github.com/vastio/vast-core/internal/importer"
	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/segment"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
	"github.com/vastio/vast-core/internal/vasterr"
)

// runImport reads newline-delimited JSON objects from stdin, infers a
// record layout from the first one, and admits them through the importer
// and segment store -- the conformance-test ingestion path of spec section
// 4.G, with the schema-inference step it assumes an upstream reader has
// already done.
func runImport(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dir := fs.String("dir", cfg.Dir, "state directory (VAST_DIR)")
	layoutName := fs.String("layout", "record", "name given to the inferred record layout")
	sliceSize := fs.Int("slice-size", 4096, "rows per table slice")
	maxSegmentSize := fs.Uint64("max-segment-size", 64<<20, "bytes before a segment rolls over")
	cacheSegments := fs.Int("cache-segments", 4, "sealed segments kept resident")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return vasterr.E(vasterr.InvalidArgument, "import: --dir (or VAST_DIR) is required", nil)
	}

	cons := consensus.NewInProcess()
	imp, err := importer.Open(ctx, cons, importer.Config{
		Dir:                *dir,
		MaxTableSliceSize:  *sliceSize,
		BlocksPerReplenish: 1,
	})
	if err != nil {
		return err
	}
	store, err := segment.Open(ctx, segment.Config{
		Dir:              *dir,
		MaxSegmentSize:   *maxSegmentSize,
		InMemorySegments: *cacheSegments,
	})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var layout schema.RecordType
	var builder *tableslice.Builder
	var fields []string
	admitted := 0
	rowsInBatch := 0

	flush := func() error {
		if builder == nil {
			return nil
		}
		slice := *builder.Finish()
		if slice.NumRows() == 0 {
			return nil
		}
		if _, err := imp.RequestCredit(ctx, 1); err != nil {
			return err
		}
		stamped, err := imp.ProcessSlice(slice)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, stamped); err != nil {
			return err
		}
		admitted += stamped.NumRows()
		return nil
	}
	newBuilder := func() error {
		b, err := tableslice.NewBuilder(layout, 0)
		if err != nil {
			return err
		}
		builder = b
		rowsInBatch = 0
		return nil
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(line, &raw); err != nil {
			return vasterr.E(vasterr.ParseError, "import: malformed JSON record", err)
		}
		if fields == nil {
			fields = sortedKeys(raw)
			layout = inferLayout(*layoutName, fields, raw)
			if err := newBuilder(); err != nil {
				return err
			}
		}
		for _, name := range fields {
			v, err := jsonToValue(raw[name])
			if err != nil {
				return vasterr.E(vasterr.TypeClash, "import: field "+name, err)
			}
			if err := builder.Append(v); err != nil {
				return err
			}
		}
		rowsInBatch++
		if rowsInBatch >= *sliceSize {
			if err := flush(); err != nil {
				return err
			}
			if err := newBuilder(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	if err := store.Seal(ctx); err != nil {
		return err
	}
	if _, err := imp.Exit(ctx); err != nil {
		return err
	}
	log.Printf("import: admitted %d rows under layout %q", admitted, *layoutName)
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inferLayout builds a flat record type from one JSON object's field
// values. Nested objects/arrays are not expanded (vast import is a
// conformance aid, not a general JSON loader): every top-level field is a
// scalar leaf, and a nested value is typed string and stored as its JSON
// text.
func inferLayout(name string, fields []string, raw map[string]interface{}) schema.RecordType {
	sfields := make([]schema.Field, len(fields))
	for i, f := range fields {
		sfields[i] = schema.Field{Name: f, Type: inferType(raw[f])}
	}
	return schema.Record(name, sfields...)
}

func inferType(v interface{}) schema.Type {
	switch t := v.(type) {
	case bool:
		return schema.Type{Kind: schema.KindBool}
	case float64:
		if t == float64(int64(t)) {
			return schema.Type{Kind: schema.KindInt}
		}
		return schema.Type{Kind: schema.KindReal}
	case string:
		return schema.Type{Kind: schema.KindString}
	default:
		// nil, or a nested object/array: store as string via its JSON text.
		return schema.Type{Kind: schema.KindString}
	}
}

func jsonToValue(v interface{}) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Nil, nil
	case bool:
		return value.NewBool(t), nil
	case float64:
		if t == float64(int64(t)) {
			return value.NewInt(int64(t)), nil
		}
		return value.NewReal(t), nil
	case string:
		return value.NewString(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(string(b)), nil
	}
}
