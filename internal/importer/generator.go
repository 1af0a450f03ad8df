package importer

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/file"

	"github.com/vastio/vast-core/internal/vasterr"
)

// idRange is a half-open [lo, hi) ID block carved out by the importer for
// future slices -- spec section 4.G's "id_generators[]" FIFO entries.
type idRange struct {
	lo, hi uint64
}

func (g idRange) remaining() uint64 { return g.hi - g.lo }

// availableIDsPath is "dir/importer/available_ids", spec section 6's
// on-disk layout entry: one "<first> <last>" line per outstanding ID
// range, so a crash leaks at most one outstanding block rather than the
// whole in-memory generator list.
func availableIDsPath(dir string) string {
	return dir + "/importer/available_ids"
}

func saveGenerators(ctx context.Context, dir string, gens []idRange) (err error) {
	out, err := file.Create(ctx, availableIDsPath(dir))
	if err != nil {
		return vasterr.E(vasterr.FilesystemError, "create available_ids", err)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := bufio.NewWriter(out.Writer(ctx))
	for _, g := range gens {
		if _, err := fmt.Fprintf(w, "%d %d\n", g.lo, g.hi); err != nil {
			return err
		}
	}
	return w.Flush()
}

func loadGenerators(ctx context.Context, dir string) (gens []idRange, err error) {
	in, err := file.Open(ctx, availableIDsPath(dir))
	if err != nil {
		if file.IsNotExist(err) {
			return nil, nil
		}
		return nil, vasterr.E(vasterr.FilesystemError, "open available_ids", err)
	}
	defer file.CloseAndReport(ctx, in, &err)
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var lo, hi uint64
		if _, err := fmt.Sscanf(line, "%d %d", &lo, &hi); err != nil {
			return nil, vasterr.E(vasterr.ParseError, "malformed available_ids line "+line, err)
		}
		if hi <= lo {
			return nil, vasterr.E(vasterr.ParseError, "malformed available_ids range "+line, nil)
		}
		gens = append(gens, idRange{lo: lo, hi: hi})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return gens, nil
}
