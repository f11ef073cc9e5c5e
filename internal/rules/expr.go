// internal/rules/expr.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Arithmetic expression parsing and evaluation.
 *
 * Expression conditions such as
 *
 *   Valor ICMS == Base ICMS * (Aliquota ICMS / 100)
 *   (Isentas ICMS + Outras ICMS) == Val.Total NF
 *
 * are parsed once at rule-load time into a small typed AST (literal, field
 * reference, binary op) and evaluated by recursive descent against a row.
 * Parsing at load time makes a malformed expression an import error instead
 * of a silent per-row false, and leaves no string-interpolation surface at
 * evaluation time.
 *
 * Grammar (one comparison, lowest precedence, exactly once):
 *
 *   comparison := sum ("=="|"!="|">="|"<="|">"|"<") sum
 *   sum        := term (("+"|"-") term)*
 *   term       := factor (("*"|"/") factor)*
 *   factor     := "-" factor | "(" sum ")" | number | field
 *
 * Field references are free-form spreadsheet column names ("Base ICMS",
 * "Val.Total NF"): a field token is the maximal run of characters up to the
 * next operator or parenthesis, trimmed. Numbers use decimal-point notation.
 *
 * Evaluation is total: unresolvable fields coerce to 0 (permissive numeric
 * coercion, see coercion.go) and division by zero yields 0 so that one bad
 * cell can never abort a batch.
 */

type exprKind int

const (
	exprLiteral exprKind = iota
	exprField
	exprBinary
)

// Expr is one node of a parsed arithmetic expression.
type Expr struct {
	kind  exprKind
	lit   float64
	field string
	op    byte // '+', '-', '*', '/'
	left  *Expr
	right *Expr
}

// Eval computes the numeric value of the expression for a row.
// Field references resolve through permissive coercion; division by zero
// yields 0.
func (e *Expr) Eval(row types.Row) float64 {
	switch e.kind {
	case exprLiteral:
		return e.lit
	case exprField:
		return NumberOrZero(row[e.field])
	case exprBinary:
		l := e.left.Eval(row)
		r := e.right.Eval(row)
		switch e.op {
		case '+':
			return l + r
		case '-':
			return l - r
		case '*':
			return l * r
		case '/':
			if r == 0 {
				return 0
			}
			return l / r
		}
	}
	return 0
}

// rewriteField replaces every reference to the field named from with to.
// Used when compiling the simple authoring format, whose condition strings
// reference the validated column as the placeholder "value".
func (e *Expr) rewriteField(from, to string) {
	switch e.kind {
	case exprField:
		if e.field == from {
			e.field = to
		}
	case exprBinary:
		e.left.rewriteField(from, to)
		e.right.rewriteField(from, to)
	}
}

// nodeCount returns the number of AST nodes, used by the cost model.
func (e *Expr) nodeCount() int {
	if e.kind == exprBinary {
		return 1 + e.left.nodeCount() + e.right.nodeCount()
	}
	return 1
}

// Comparison is a fully parsed expression condition: two arithmetic sides
// joined by exactly one comparison operator.
type Comparison struct {
	Left  *Expr
	Right *Expr
	Op    Operator
}

// ParseComparison parses an expression condition source string.
// Returns ErrExpressionTooLong or ErrBadExpression (wrapped with position
// context) for sources that do not match the grammar.
func ParseComparison(src string) (*Comparison, error) {
	if len(src) > types.MaxExpressionLength {
		return nil, types.ErrExpressionTooLong
	}

	p := &exprParser{src: src}
	p.next()

	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokCompare {
		return nil, fmt.Errorf("%w: expected comparison operator in %q", types.ErrBadExpression, src)
	}
	op := p.tok.cmp
	p.next()

	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q in %q", types.ErrBadExpression, p.tok.text, src)
	}

	return &Comparison{Left: left, Right: right, Op: op}, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokField
	tokOp      // + - * /
	tokLParen
	tokRParen
	tokCompare // == != >= <= > <
)

type token struct {
	kind tokenKind
	text string
	num  float64
	op   byte
	cmp  Operator
}

type exprParser struct {
	src string
	pos int
	tok token
	err error
}

// next advances to the following token. Lexing errors are sticky: the
// parser surfaces them at the next grammar step.
func (p *exprParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "("}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")"}
	case c == '+' || c == '*' || c == '/' || c == '-':
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), op: c}
	case c == '=' || c == '!' || c == '<' || c == '>':
		p.lexCompare()
	case c >= '0' && c <= '9':
		p.lexNumber()
	default:
		p.lexField()
	}
}

func (p *exprParser) lexCompare() {
	rest := p.src[p.pos:]
	for _, cand := range []struct {
		text string
		op   Operator
	}{
		{"==", OpEq}, {"!=", OpNeq}, {">=", OpGte}, {"<=", OpLte},
		{">", OpGt}, {"<", OpLt},
	} {
		if strings.HasPrefix(rest, cand.text) {
			p.pos += len(cand.text)
			p.tok = token{kind: tokCompare, text: cand.text, cmp: cand.op}
			return
		}
	}
	p.err = fmt.Errorf("%w: stray %q", types.ErrBadExpression, string(p.src[p.pos]))
	p.tok = token{kind: tokEOF}
	p.pos = len(p.src)
}

func (p *exprParser) lexNumber() {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: bad number %q", types.ErrBadExpression, text)
		p.tok = token{kind: tokEOF}
		p.pos = len(p.src)
		return
	}
	p.tok = token{kind: tokNumber, text: text, num: num}
}

// lexField consumes a column-name reference: the maximal run up to the next
// operator or parenthesis, with surrounding whitespace trimmed. Column names
// may contain spaces and dots ("Val.Total NF").
func (p *exprParser) lexField() {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '+', '-', '*', '/', '(', ')', '=', '!', '<', '>':
			goto done
		}
		p.pos++
	}
done:
	text := strings.TrimSpace(p.src[start:p.pos])
	if text == "" {
		p.err = fmt.Errorf("%w: empty field reference", types.ErrBadExpression)
		p.tok = token{kind: tokEOF}
		p.pos = len(p.src)
		return
	}
	p.tok = token{kind: tokField, text: text}
}

func (p *exprParser) parseSum() (*Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.op == '+' || p.tok.op == '-') {
		op := p.tok.op
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Expr{kind: exprBinary, op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseTerm() (*Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.op == '*' || p.tok.op == '/') {
		op := p.tok.op
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Expr{kind: exprBinary, op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseFactor() (*Expr, error) {
	if p.err != nil {
		return nil, p.err
	}

	switch p.tok.kind {
	case tokOp:
		if p.tok.op == '-' {
			// Unary minus: 0 - factor
			p.next()
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return &Expr{kind: exprBinary, op: '-', left: &Expr{kind: exprLiteral}, right: inner}, nil
		}
	case tokLParen:
		p.next()
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis in %q", types.ErrBadExpression, p.src)
		}
		p.next()
		return inner, nil
	case tokNumber:
		e := &Expr{kind: exprLiteral, lit: p.tok.num}
		p.next()
		return e, nil
	case tokField:
		e := &Expr{kind: exprField, field: p.tok.text}
		p.next()
		return e, nil
	}

	if p.err != nil {
		return nil, p.err
	}
	return nil, fmt.Errorf("%w: unexpected %q in %q", types.ErrBadExpression, p.tok.text, p.src)
}
