package ast

import "fmt"

// Parse tokenizes and parses one build description file into a CodeBlock
// root, or returns a diagnostic with (file, line, col) on the first syntax
// error. There is no error recovery (spec §4.1).
func Parse(file, src string) (*CodeBlock, error) {
	p := &parser{lex: newLexer(file, src), file: file}
	if err := p.advance(); err != nil {
		return nil, err
	}
	block, err := p.parseBlock(isBlockEnd)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected trailing token")
	}
	return block, nil
}

type parser struct {
	lex  *lexer
	file string
	tok  token
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %s", p.file, p.tok.pos.Line, p.tok.pos.Col, fmt.Sprintf(format, args...))
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(k tokenKind, what string) error {
	if p.tok.kind != k {
		return p.errorf("expected %s", what)
	}
	return p.advance()
}

func (p *parser) skipEOLs() error {
	for p.tok.kind == tokEOL {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func isBlockEnd(k tokenKind) bool {
	return k == tokEOF || k == tokElif || k == tokElse || k == tokEndif || k == tokEndforeach
}

func (p *parser) parseBlock(end func(tokenKind) bool) (*CodeBlock, error) {
	start := p.tok.pos
	var lines []Node
	for {
		if err := p.skipEOLs(); err != nil {
			return nil, err
		}
		if end(p.tok.kind) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		lines = append(lines, stmt)
		if p.tok.kind != tokEOL && !end(p.tok.kind) {
			return nil, p.errorf("expected end of line")
		}
	}
	return NewCodeBlock(start, lines), nil
}

func (p *parser) parseStatement() (Node, error) {
	switch p.tok.kind {
	case tokIf:
		return p.parseIf()
	case tokForeach:
		return p.parseForeach()
	case tokContinue, tokBreak:
		pos := p.tok.pos
		name := "continue"
		if p.tok.kind == tokBreak {
			name = "break"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewFunctionCall(pos, name, Args{}), nil
	}

	// Assignment needs one token of lookahead: ID (= | +=) ...
	if p.tok.kind == tokID {
		save := *p.lex
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokAssign {
			if err := p.advance(); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return NewAssign(tok.pos, tok.text, val), nil
		}
		if p.tok.kind == tokPlusAssign {
			if err := p.advance(); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return NewPlusAssign(tok.pos, tok.text, val), nil
		}
		// Not an assignment: rewind and parse as expression statement.
		*p.lex = save
		p.tok = tok
	}

	return p.parseExpr()
}

func (p *parser) parseIf() (Node, error) {
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var branches []IfBranch
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(isBlockEnd)
	if err != nil {
		return nil, err
	}
	branches = append(branches, IfBranch{cond, body})

	for p.tok.kind == tokElif {
		if err := p.advance(); err != nil {
			return nil, err
		}
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		b, err := p.parseBlock(isBlockEnd)
		if err != nil {
			return nil, err
		}
		branches = append(branches, IfBranch{c, b})
	}

	var els *CodeBlock
	if p.tok.kind == tokElse {
		if err := p.advance(); err != nil {
			return nil, err
		}
		b, err := p.parseBlock(isBlockEnd)
		if err != nil {
			return nil, err
		}
		els = b
	}

	if err := p.expect(tokEndif, "endif"); err != nil {
		return nil, err
	}
	return NewIf(pos, branches, els), nil
}

func (p *parser) parseForeach() (Node, error) {
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var vars []string
	if p.tok.kind != tokID {
		return nil, p.errorf("expected loop variable")
	}
	vars = append(vars, p.tok.text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.tok.kind == tokComma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokID {
			return nil, p.errorf("expected loop variable")
		}
		vars = append(vars, p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(isBlockEnd)
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokEndforeach, "endforeach"); err != nil {
		return nil, err
	}
	return NewForeach(pos, vars, iter, body), nil
}

// Expression grammar, lowest to highest precedence:
//   or  <  and  <  not  <  equality  <  additive  <  multiplicative  <  unary  <  postfix  <  primary

func (p *parser) parseExpr() (Node, error) { return p.parseOr() }

func (p *parser) parseOr() (Node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = NewOr(pos, l, r)
	}
	return l, nil
}

func (p *parser) parseAnd() (Node, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = NewAnd(pos, l, r)
	}
	return l, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.tok.kind == tokNot {
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NewNot(pos, v), nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (Node, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op CmpOp
	var has bool
	switch p.tok.kind {
	case tokEq:
		op, has = CmpEq, true
	case tokNe:
		op, has = CmpNe, true
	case tokLt:
		op, has = CmpLt, true
	case tokLe:
		op, has = CmpLe, true
	case tokGt:
		op, has = CmpGt, true
	case tokGe:
		op, has = CmpGe, true
	case tokIn:
		op, has = CmpIn, true
	}
	if !has {
		return l, nil
	}
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	r, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return NewCmp(pos, op, l, r), nil
}

func (p *parser) parseAdditive() (Node, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := ArithAdd
		if p.tok.kind == tokMinus {
			op = ArithSub
		}
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = NewArith(pos, op, l, r)
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash || p.tok.kind == tokPercent {
		var op ArithOp
		switch p.tok.kind {
		case tokStar:
			op = ArithMul
		case tokSlash:
			op = ArithDiv
		default:
			op = ArithMod
		}
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = NewArith(pos, op, l, r)
	}
	return l, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokMinus {
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewNeg(pos, v), nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokDot:
			pos := p.tok.pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokID {
				return nil, p.errorf("expected method name")
			}
			name := p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expect(tokLParen, "'('"); err != nil {
				return nil, err
			}
			args, err := p.parseArgs(tokRParen)
			if err != nil {
				return nil, err
			}
			n = NewMethodCall(pos, n, name, args)
		case tokLBracket:
			pos := p.tok.pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			n = NewIndex(pos, n, idx)
		default:
			return n, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	pos := p.tok.pos
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var items []Node
		for p.tok.kind != tokRBracket {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return NewArray(pos, items), nil
	case tokString:
		s := p.tok.text
		fmtSites := p.tok.hasFormatSites
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewStr(pos, s, fmtSites), nil
	case tokNumber:
		n := p.tok.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewNum(pos, n), nil
	case tokTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewBool(pos, true), nil
	case tokFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewBool(pos, false), nil
	case tokID:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseArgs(tokRParen)
			if err != nil {
				return nil, err
			}
			return NewFunctionCall(pos, name, args), nil
		}
		return NewId(pos, name), nil
	}
	return nil, p.errorf("unexpected token in expression")
}

// parseArgs parses a positional/keyword argument list up to (and
// consuming) the closing delimiter.
func (p *parser) parseArgs(closing tokenKind) (Args, error) {
	args := Args{Keyword: map[string]Node{}}
	seenKeyword := false
	for {
		if err := p.skipEOLs(); err != nil {
			return args, err
		}
		if p.tok.kind == closing {
			break
		}
		// keyword arg: ID ':' expr, distinguished by lookahead.
		if p.tok.kind == tokID {
			save := *p.lex
			tok := p.tok
			if err := p.advance(); err != nil {
				return args, err
			}
			if p.tok.kind == tokColon {
				if err := p.advance(); err != nil {
					return args, err
				}
				if err := p.skipEOLs(); err != nil {
					return args, err
				}
				val, err := p.parseExpr()
				if err != nil {
					return args, err
				}
				args.Keyword[tok.text] = val
				args.KeywordOrder = append(args.KeywordOrder, tok.text)
				seenKeyword = true
				goto afterArg
			}
			*p.lex = save
			p.tok = tok
		}
		{
			val, err := p.parseExpr()
			if err != nil {
				return args, err
			}
			if seenKeyword {
				args.PositionalBeforeKeyword = true
			}
			args.Positional = append(args.Positional, val)
		}
	afterArg:
		if err := p.skipEOLs(); err != nil {
			return args, err
		}
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return args, err
			}
			continue
		}
		break
	}
	if err := p.skipEOLs(); err != nil {
		return args, err
	}
	if err := p.expect(closing, "closing delimiter"); err != nil {
		return args, err
	}
	return args, nil
}
