package parse

import (
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

// VarResolver maps a variable name appearing in a "<name>" reference to
// the host variable it names, constructing a var-leaf node for it. The
// parser has no notion of a variable table of its own; resolution is
// entirely delegated to the caller's host, mirroring the rest of this
// core's "never hold host state directly" rule.
type VarResolver func(name string) (expr.HostVar, error)

// Result is the outcome of parsing one textual constraint.
type Result struct {
	Root *expr.Node
	Lhs  float64
	Rhs  float64
}

// Parser holds the parsing state for a single constraint string.
type Parser struct {
	lex     *lexer
	tok     token
	handlers *ophandlers.Handlers
	varH    *expr.ExprHandler
	resolve VarResolver
}

// New constructs a parser for src using h to build handler nodes and
// resolve to resolve "<name>" variable references. The var handler
// itself (ophandlers.NewVarHandler) must be registered under the same
// name the core expects for lock forwarding. It is passed separately
// from h, so a caller may supply a var handler other than h.Var;
// callers using ophandlers.NewHandlers typically pass h.Var.
func New(src string, h *ophandlers.Handlers, varHandler *expr.ExprHandler, resolve VarResolver) (*Parser, error) {
	p := &Parser{lex: newLexer(src), handlers: h, varH: varHandler, resolve: resolve}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// ParseConstraint parses a full constraint per spec §6's grammar:
//
//	[number relop] expression (relop number | "free")
func (p *Parser) ParseConstraint() (Result, error) {
	lhs := math.Inf(-1)
	rhs := math.Inf(1)
	haveLeadingSide := false

	if p.tok.kind == tokNumber {
		leading := p.tok.num
		if err := p.advance(); err != nil {
			return Result{}, err
		}
		rel, err := p.expectRelop()
		if err != nil {
			return Result{}, err
		}
		switch rel {
		case tokLE:
			lhs = leading
		case tokGE:
			rhs = leading
		case tokEQ:
			lhs, rhs = leading, leading
		}
		haveLeadingSide = true
	}

	root, err := p.parseExpression()
	if err != nil {
		return Result{}, err
	}

	if p.tok.kind == tokFree {
		if err := p.advance(); err != nil {
			return Result{}, err
		}
	} else if p.tok.kind == tokLE || p.tok.kind == tokGE || p.tok.kind == tokEQ {
		rel := p.tok.kind
		if err := p.advance(); err != nil {
			return Result{}, err
		}
		if p.tok.kind != tokNumber {
			return Result{}, expr.ErrRead.New(p.tok.pos, "expected number after relational operator")
		}
		val := p.tok.num
		if err := p.advance(); err != nil {
			return Result{}, err
		}
		switch rel {
		case tokLE:
			rhs = val
		case tokGE:
			lhs = val
		case tokEQ:
			lhs, rhs = val, val
		}
	} else if !haveLeadingSide {
		return Result{}, expr.ErrRead.New(p.tok.pos, "expected relational operator or 'free'")
	}

	if p.tok.kind != tokEOF {
		return Result{}, expr.ErrRead.New(p.tok.pos, "unexpected trailing input")
	}
	return Result{Root: root, Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) expectRelop() (tokenKind, error) {
	switch p.tok.kind {
	case tokLE, tokGE, tokEQ:
		k := p.tok.kind
		return k, p.advance()
	}
	return 0, expr.ErrRead.New(p.tok.pos, "expected relational operator")
}

// parseExpression implements expression -> ["+"|"-"] term {("+"|"-"|number "*") term}.
func (p *Parser) parseExpression() (*expr.Node, error) {
	neg := false
	if p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		neg = p.tok.kind == tokMinus
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []*expr.Node{first}
	coeffs := []float64{1}
	if neg {
		coeffs[0] = -1
	}

	for {
		switch p.tok.kind {
		case tokPlus, tokMinus:
			sign := 1.0
			if p.tok.kind == tokMinus {
				sign = -1
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
			coeffs = append(coeffs, sign)
		case tokNumber:
			coeff := p.tok.num
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokStar {
				return nil, expr.ErrRead.New(p.tok.pos, "expected '*' after implicit coefficient")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
			coeffs = append(coeffs, coeff)
		default:
			if len(terms) == 1 {
				if coeffs[0] == 1 {
					return terms[0], nil
				}
				return ophandlers.NewSum(p.handlers.Sum, coeffs, 0, terms...), nil
			}
			return ophandlers.NewSum(p.handlers.Sum, coeffs, 0, terms...), nil
		}
	}
}

// parseTerm implements term -> factor {("*"|"/") factor}.
func (p *Parser) parseTerm() (*expr.Node, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	factors := []*expr.Node{first}
	for {
		switch p.tok.kind {
		case tokStar:
			if err := p.advance(); err != nil {
				return nil, err
			}
			f, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case tokSlash:
			if err := p.advance(); err != nil {
				return nil, err
			}
			f, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			factors = append(factors, ophandlers.NewPow(p.handlers.Pow, f, -1))
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return ophandlers.NewProduct(p.handlers.Product, factors...), nil
		}
	}
}

// parseFactor implements factor -> base ["^" exponent].
func (p *Parser) parseFactor() (*expr.Node, error) {
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokCaret {
		if err := p.advance(); err != nil {
			return nil, err
		}
		neg := false
		if p.tok.kind == tokMinus {
			neg = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.kind != tokNumber {
			return nil, expr.ErrRead.New(p.tok.pos, "expected numeric exponent")
		}
		exp := p.tok.num
		if neg {
			exp = -exp
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ophandlers.NewPow(p.handlers.Pow, base, exp), nil
	}
	return base, nil
}

// parseBase implements base -> number | "<" var-name ">" | "(" expression ")" | name "(" expression ")".
func (p *Parser) parseBase() (*expr.Node, error) {
	switch p.tok.kind {
	case tokNumber:
		v := p.tok.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ophandlers.NewValue(p.handlers.Value, v), nil
	case tokVar:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		hv, err := p.resolve(name)
		if err != nil {
			return nil, err
		}
		return expr.NewNode(p.varH, hv), nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, expr.ErrRead.New(p.tok.pos, "expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		name := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokLParen {
			return nil, expr.ErrRead.New(pos, "expected '(' after function name")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, expr.ErrRead.New(p.tok.pos, "expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		h, ok := p.unaryHandler(name)
		if !ok {
			return nil, expr.ErrUnsupportedOperator.New(name, "parse")
		}
		return ophandlers.NewUnary(h, arg), nil
	}
	return nil, expr.ErrRead.New(p.tok.pos, "expected a number, variable, parenthesized expression, or function call")
}

func (p *Parser) unaryHandler(name string) (*expr.ExprHandler, bool) {
	switch name {
	case ophandlers.ExpHandlerName:
		return p.handlers.Exp, true
	case ophandlers.LogHandlerName:
		return p.handlers.Log, true
	case ophandlers.SinHandlerName:
		return p.handlers.Sin, true
	case ophandlers.CosHandlerName:
		return p.handlers.Cos, true
	case ophandlers.AbsHandlerName:
		return p.handlers.Abs, true
	case ophandlers.EntropyHandlerName:
		return p.handlers.Entropy, true
	}
	return nil, false
}

// ParseConstraint parses src into a Result in one call.
func ParseConstraint(src string, h *ophandlers.Handlers, varHandler *expr.ExprHandler, resolve VarResolver) (Result, error) {
	p, err := New(src, h, varHandler, resolve)
	if err != nil {
		return Result{}, err
	}
	return p.ParseConstraint()
}
