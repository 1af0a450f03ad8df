package main

import (
	"strings"

	"github.com/vastio/vast-core/internal/expr"
	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/value"
)

// matchRow evaluates e against one flattened row, the per-row counterpart
// to the meta-index's per-partition Lookup: a predicate matches if any
// column its extractor selects satisfies the comparison, mirroring
// metaindex.lookupPredicate's OR-over-matched-columns semantics.
func matchRow(e expr.Expr, layout schema.RecordType, row []value.Value) bool {
	switch v := e.(type) {
	case expr.Conjunction:
		for _, operand := range v.Operands {
			if !matchRow(operand, layout, row) {
				return false
			}
		}
		return true
	case expr.Disjunction:
		for _, operand := range v.Operands {
			if matchRow(operand, layout, row) {
				return true
			}
		}
		return false
	case expr.Negation:
		return !matchRow(v.Operand, layout, row)
	case expr.Predicate:
		return matchPredicate(v, layout, row)
	default:
		return false
	}
}

func matchPredicate(p expr.Predicate, layout schema.RecordType, row []value.Value) bool {
	if attr, ok := p.LHS.(expr.AttributeExtractor); ok && attr.Name == "type" {
		return value.Evaluate(value.NewString(layout.Name), p.Op, p.RHS)
	}
	for col, f := range layout.Fields {
		if !fieldMatches(p.LHS, f) {
			continue
		}
		if value.Evaluate(row[col], p.Op, p.RHS) {
			return true
		}
	}
	return false
}

func fieldMatches(ext expr.Extractor, f schema.Field) bool {
	switch v := ext.(type) {
	case expr.AttributeExtractor:
		return v.Name == "timestamp" && f.Attrs.Timestamp
	case expr.KeyExtractor:
		return strings.HasSuffix(f.Name, v.Key)
	case expr.TypeExtractor:
		return f.Type.Equal(v.Type)
	default:
		return false
	}
}
