package value

// View is the borrowed counterpart of Value used by table-slice columns and
// index append paths. In the original C++ the split exists because views
// alias a backing arena without taking ownership; in Go, Value already
// stores its variable-length payloads (strings, []Value, []MapEntry) as
// reference types, so a View is representationally identical to a Value --
// the distinction here is purely about calling convention: code written
// against View documents that it must not retain or mutate the backing
// storage past the call, exactly mirroring the read pattern table slices use
// to feed columns into value indices without per-cell allocation.
type View = Value

// Materialize copies a View into an owning Value. Since View and Value share
// a representation the copy is free for scalars; for vectors/sets/maps the
// caller is responsible for not aliasing slices it intends to mutate
// in-place afterwards.
func Materialize(v View) Value { return v }
