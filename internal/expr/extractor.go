package expr

import "github.com/vastio/vast-core/internal/schema"

// Extractor names which column(s) a Predicate's left-hand side refers to.
type Extractor interface {
	isExtractor()
}

// AttributeExtractor selects columns by a well-known attribute name:
// "timestamp" selects every field with Attrs.Timestamp set; "type" is
// special-cased by the meta-index to filter on the layout's own name
// instead of any column.
type AttributeExtractor struct {
	Name string
}

// KeyExtractor selects every field whose (possibly dotted, post-flatten)
// name ends with Key.
type KeyExtractor struct {
	Key string
}

// TypeExtractor selects every field whose type equals Type.
type TypeExtractor struct {
	Type schema.Type
}

func (AttributeExtractor) isExtractor() {}
func (KeyExtractor) isExtractor()       {}
func (TypeExtractor) isExtractor()      {}
