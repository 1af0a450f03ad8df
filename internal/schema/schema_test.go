package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vastio/vast-core/internal/value"
)

func TestTypeEqualRecord(t *testing.T) {
	a := Record("event", Field{Name: "src", Type: Type{Kind: KindAddress}})
	b := Record("event", Field{Name: "src", Type: Type{Kind: KindAddress}})
	c := Record("event", Field{Name: "dst", Type: Type{Kind: KindAddress}})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestTypeEqualIgnoresAttributes(t *testing.T) {
	a := Record("event", Field{Name: "ts", Type: Type{Kind: KindTime}, Attrs: Attributes{Timestamp: true}})
	b := Record("event", Field{Name: "ts", Type: Type{Kind: KindTime}})
	assert.True(t, a.Equal(b))
}

func TestTypeEqualVectorSetMap(t *testing.T) {
	intType := Type{Kind: KindInt}
	strType := Type{Kind: KindString}
	vecInt := Type{Kind: KindVector, Elem: &intType}
	vecInt2 := Type{Kind: KindVector, Elem: &intType}
	vecStr := Type{Kind: KindVector, Elem: &strType}
	assert.True(t, vecInt.Equal(vecInt2))
	assert.False(t, vecInt.Equal(vecStr))

	m1 := Type{Kind: KindMap, Key: &strType, Elem: &intType}
	m2 := Type{Kind: KindMap, Key: &strType, Elem: &intType}
	assert.True(t, m1.Equal(m2))
}

func TestMarshalUnmarshalTypeRoundTrip(t *testing.T) {
	addrType := Type{Kind: KindAddress}
	rt := Record("conn",
		Field{Name: "ts", Type: Type{Kind: KindTime}, Attrs: Attributes{Timestamp: true}},
		Field{Name: "src", Type: addrType, Attrs: Attributes{ID: true}},
		Field{Name: "tags", Type: Type{Kind: KindSet, Elem: &Type{Kind: KindString}}, Attrs: Attributes{MaxSize: 64, Base: []int{4, 4, 4}}},
	)

	buf := MarshalType(nil, rt)
	got, n, err := UnmarshalType(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, rt.Equal(got))
	assert.Equal(t, rt.Fields[1].Attrs.ID, got.Fields[1].Attrs.ID)
	assert.Equal(t, rt.Fields[2].Attrs.MaxSize, got.Fields[2].Attrs.MaxSize)
	assert.Equal(t, rt.Fields[2].Attrs.Base, got.Fields[2].Attrs.Base)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	nested := Record("addr", Field{Name: "ip", Type: Type{Kind: KindAddress}}, Field{Name: "port", Type: Type{Kind: KindPort}})
	top := Record("event",
		Field{Name: "id", Type: Type{Kind: KindString}},
		Field{Name: "endpoint", Type: nested},
	)

	flat, err := FlattenType(top)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(flat.Fields))
	assert.Equal(t, "endpoint.ip", flat.Fields[1].Name)
	assert.Equal(t, "endpoint.port", flat.Fields[2].Name)

	row := []Cell{
		value.NewString("evt-1"),
		[]Cell{value.NewAddress(value.Address{}), value.NewPort(value.Port{Number: 80})},
	}
	flatVals, err := Flatten(top, row)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(flatVals))

	back, err := Unflatten(top, flatVals)
	assert.NoError(t, err)
	assert.Equal(t, row[0], back[0])
	nestedBack, ok := back[1].([]Cell)
	assert.True(t, ok)
	assert.Equal(t, 2, len(nestedBack))
}

func TestFlattenNilNestedRecordCollapses(t *testing.T) {
	nested := Record("addr", Field{Name: "ip", Type: Type{Kind: KindAddress}}, Field{Name: "port", Type: Type{Kind: KindPort}})
	top := Record("event", Field{Name: "endpoint", Type: nested})

	row := []Cell{value.Nil}
	flatVals, err := Flatten(top, row)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(flatVals))
	assert.True(t, flatVals[0].IsNil())
	assert.True(t, flatVals[1].IsNil())

	back, err := Unflatten(top, flatVals)
	assert.NoError(t, err)
	v, ok := back[0].(value.Value)
	assert.True(t, ok)
	assert.True(t, v.IsNil())
}

func TestFlattenWrongCellCountErrors(t *testing.T) {
	top := Record("event", Field{Name: "id", Type: Type{Kind: KindString}})
	_, err := Flatten(top, []Cell{})
	assert.Error(t, err)
}
