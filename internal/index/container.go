package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/value"
)

// containerLookup implements "x in {container}" / "x !in {container}" for
// scalar indices: a row matches iff its value equals one of the container's
// elements, i.e. the union of an equality lookup per element.
func containerLookup(eq func(value.Value) (*bitmap.Bitmap, error), size uint64, op value.Op, container value.Value) (*bitmap.Bitmap, error) {
	switch op {
	case value.In, value.NotIn:
		result := bitmap.New()
		result.AppendBits(false, size)
		for _, e := range container.Elements() {
			bm, err := eq(e)
			if err != nil {
				return nil, err
			}
			result = bitmap.Or(result, bm)
		}
		if op == value.NotIn {
			result = result.Not()
		}
		return result, nil
	default:
		return nil, fmt.Errorf("index: unsupported operator %s against container", op)
	}
}
