package rangemap

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grailbio/base/file"
)

// Save writes every interval in m to path as one "<lo> <hi> <uuid>" line per
// entry, the same flat line-oriented format spec section 6 mandates for
// dir/importer/available_ids -- the range-map's on-disk form (dir/meta) is
// small and rewritten wholesale on every segment seal/erase, so there is no
// need for a binary or length-prefixed encoding here.
func Save(ctx context.Context, path string, m *Map) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := bufio.NewWriter(out.Writer(ctx))
	for _, e := range m.All() {
		if _, err := fmt.Fprintf(w, "%d %d %s\n", e.Lo, e.Hi, e.ID); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Load rebuilds a Map from a file previously written by Save. A missing
// file is not an error: it means the store has never sealed a meta file
// yet, so Load returns an empty Map.
func Load(ctx context.Context, path string) (m *Map, err error) {
	m = New()
	in, err := file.Open(ctx, path)
	if err != nil {
		if file.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var lo, hi uint64
		var idStr string
		if _, err := fmt.Sscanf(line, "%d %d %s", &lo, &hi, &idStr); err != nil {
			return nil, fmt.Errorf("rangemap: parse_error: malformed meta line %q: %w", line, err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("rangemap: parse_error: malformed uuid %q: %w", idStr, err)
		}
		if err := m.Inject(lo, hi, id); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
