package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vastio/vast-core/internal/expr"
	"github.com/vastio/vast-core/internal/value"
)

// The export subcommand's filter language is intentionally tiny: field op
// literal terms joined by "and"/"or"/"not", no parentheses, no address or
// pattern literals. Parsing a real query language is explicitly out of
// scope (spec section 1); this exists only so "vast export" has something
// to drive conformance tests with.
//
//	vast export 'proto == "tcp" and count > 3'

type token struct {
	text string
}

func tokenize(s string) []token {
	var toks []token
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, token{cur.String()})
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	toks []token
	pos  int
}

func parseExpr(s string) (expr.Expr, error) {
	p := &parser{toks: tokenize(s)}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected token %q", p.toks[p.pos].text)
	}
	return e, nil
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos].text
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) parseOr() (expr.Expr, error) {
	operands := []expr.Expr{}
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands = append(operands, first)
	for strings.EqualFold(p.peek(), "or") {
		p.next()
		operand, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return expr.Or(operands...), nil
}

func (p *parser) parseAnd() (expr.Expr, error) {
	operands := []expr.Expr{}
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	operands = append(operands, first)
	for strings.EqualFold(p.peek(), "and") {
		p.next()
		operand, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return expr.And(operands...), nil
}

func (p *parser) parseTerm() (expr.Expr, error) {
	if strings.EqualFold(p.peek(), "not") {
		p.next()
		operand, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return expr.Not(operand), nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (expr.Expr, error) {
	field := p.next()
	if field == "" {
		return nil, fmt.Errorf("expected field name")
	}
	opTok := p.next()
	op, err := parseOp(opTok)
	if err != nil {
		return nil, err
	}
	litTok := p.next()
	if litTok == "" {
		return nil, fmt.Errorf("expected literal after %q %q", field, opTok)
	}
	rhs := parseLiteral(litTok)

	lhs := expr.Extractor(expr.KeyExtractor{Key: field})
	if field == "type" || field == "timestamp" {
		lhs = expr.AttributeExtractor{Name: field}
	}
	return expr.Predicate{LHS: lhs, Op: op, RHS: rhs}, nil
}

func parseOp(tok string) (value.Op, error) {
	switch tok {
	case "==", "=":
		return value.Eq, nil
	case "!=":
		return value.Ne, nil
	case "<":
		return value.Lt, nil
	case "<=":
		return value.Le, nil
	case ">":
		return value.Gt, nil
	case ">=":
		return value.Ge, nil
	case "in":
		return value.In, nil
	case "!in":
		return value.NotIn, nil
	case "ni":
		return value.Ni, nil
	case "!ni":
		return value.NotNi, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", tok)
	}
}

// parseLiteral turns a bareword or quoted token into a Value: quoted or
// unparsable-as-number text becomes a string, "true"/"false" becomes a
// bool, anything else that parses as a number becomes an int or a real.
func parseLiteral(tok string) value.Value {
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return value.NewString(tok[1 : len(tok)-1])
	}
	if tok == "true" || tok == "false" {
		return value.NewBool(tok == "true")
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return value.NewInt(i)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.NewReal(f)
	}
	return value.NewString(tok)
}
