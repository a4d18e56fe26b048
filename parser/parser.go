package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/lexer"
)

// ErrUnknownMethod is returned for an unrecognized outlier, normalization
// or plot method name.
var ErrUnknownMethod = errors.New("unknown method")

// Parser converts a token stream into statements.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse parses exactly one statement; a trailing ";" is optional.
func Parse(input string) (ast.Statement, error) {
	stmts, err := ParseScript(input)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected one statement, got %d", len(stmts))
	}
	return stmts[0], nil
}

// ParseScript parses a ";"-separated sequence of statements.
func ParseScript(input string) ([]ast.Statement, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	p := &Parser{tokens: tokens, pos: 0}

	var stmts []ast.Statement
	for {
		for p.peek().Type == lexer.TokenSemicolon {
			p.advance()
		}
		if p.peek().Type == lexer.TokenEOF {
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if tok := p.peek(); tok.Type != lexer.TokenSemicolon && tok.Type != lexer.TokenEOF {
			return nil, fmt.Errorf("unexpected token %s (%q) at position %d, expected ';'", tok.Type, tok.Val, tok.Pos)
		}
	}
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

// accept consumes the keyword kw if it is next.
func (p *Parser) accept(kw string) bool {
	if p.peek().Is(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	tok := p.advance()
	if !tok.Is(kw) {
		return fmt.Errorf("expected %s, got %s (%q) at position %d", kw, tok.Type, tok.Val, tok.Pos)
	}
	return nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return nil, fmt.Errorf("expected statement, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}

	switch strings.ToUpper(tok.Val) {
	case "LOAD":
		return p.parseLoad()
	case "SELECT":
		return p.parseSelect()
	case "FILL":
		return p.parseFillNa()
	case "DROP":
		return p.parseDrop()
	case "CLEAN":
		return p.parseClean()
	case "REPLACE":
		return p.parseReplace()
	case "FILTER":
		return p.parseFilterOutliers()
	case "NORMALIZE":
		return p.parseNormalize()
	case "PLOT":
		return p.parsePlot()
	default:
		return nil, fmt.Errorf("unknown statement %q at position %d", tok.Val, tok.Pos)
	}
}

func (p *Parser) parseLoad() (ast.Statement, error) {
	p.advance() // consume LOAD
	tok := p.advance()
	if tok.Type != lexer.TokenString {
		return nil, fmt.Errorf("load: expected quoted path, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	name, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &ast.LoadStmt{Path: tok.Val, Table: name}, nil
}

func (p *Parser) parseSelect() (ast.Statement, error) {
	p.advance() // consume SELECT
	s := &ast.SelectStmt{}

	if p.peek().Type == lexer.TokenStar {
		p.advance()
		s.Star = true
	} else {
		for {
			item, err := p.parseSelectItem()
			if err != nil {
				return nil, fmt.Errorf("select: %w", err)
			}
			s.Items = append(s.Items, item)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	from, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	s.From = from

	switch {
	case p.accept("WHERE"):
		if s.Where, err = p.parseCondition(); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	case p.accept("FILTER"):
		if _, err := p.expect(lexer.TokenLParen); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if s.Where, err = p.parseCondition(); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	}

	if p.accept("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if s.GroupBy, err = p.parseNameList(); err != nil {
			return nil, fmt.Errorf("select: group by: %w", err)
		}
	}

	if p.accept("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		for {
			col, err := p.parseName()
			if err != nil {
				return nil, fmt.Errorf("select: order by: %w", err)
			}
			key := ast.OrderKey{Column: col}
			if p.accept("DESC") {
				key.Desc = true
			} else {
				p.accept("ASC")
			}
			s.OrderBy = append(s.OrderBy, key)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}

	if p.accept("AS") {
		if s.Into, err = p.parseName(); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	}
	return s, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	tok := p.peek()
	if tok.Type == lexer.TokenIdent && p.peekAt(1).Type == lexer.TokenLParen {
		fn, ok := ast.ParseAggFunc(tok.Val)
		if !ok {
			return nil, fmt.Errorf("unknown aggregate function %q at position %d", tok.Val, tok.Pos)
		}
		p.advance() // function name
		p.advance() // (
		call := &ast.AggregateCall{Func: fn}
		if p.peek().Type == lexer.TokenStar {
			p.advance()
			call.Column = ast.Wildcard
		} else {
			col, err := p.parseName()
			if err != nil {
				return nil, err
			}
			call.Column = col
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return call, nil
	}

	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	return &ast.ColumnRef{Name: name}, nil
}

func (p *Parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+offset]
}

// --- Conditions (precedence: OR < AND < NOT) ---

func (p *Parser) parseCondition() (ast.Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept("AND") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Condition, error) {
	if p.accept("NOT") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Inner: inner}, nil
	}
	if p.peek().Type == lexer.TokenLParen {
		p.advance()
		inner, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return &ast.Group{Inner: inner}, nil
	}
	return p.parseComparison()
}

var compareOps = map[lexer.TokenType]ast.CompareOp{
	lexer.TokenEq:  ast.OpEq,
	lexer.TokenNeq: ast.OpNeq,
	lexer.TokenLt:  ast.OpLt,
	lexer.TokenGt:  ast.OpGt,
	lexer.TokenLte: ast.OpLte,
	lexer.TokenGte: ast.OpGte,
}

func (p *Parser) parseComparison() (ast.Condition, error) {
	col, err := p.parseName()
	if err != nil {
		return nil, err
	}
	opTok := p.advance()
	op, ok := compareOps[opTok.Type]
	if !ok {
		return nil, fmt.Errorf("expected comparison operator after %q, got %s (%q) at position %d",
			col, opTok.Type, opTok.Val, opTok.Pos)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.Comparison{Column: col, Op: op, Value: lit}, nil
}

func (p *Parser) parseLiteral() (ast.Literal, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenNumber:
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return ast.Literal{}, fmt.Errorf("invalid number %q at position %d", tok.Val, tok.Pos)
		}
		return ast.NumberLit(f), nil
	case lexer.TokenString:
		return ast.TextLit(tok.Val), nil
	case lexer.TokenIdent, lexer.TokenBacktickIdent:
		return ast.BareLit(tok.Val), nil
	}
	return ast.Literal{}, fmt.Errorf("expected value, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
}

// --- Clean commands ---

func (p *Parser) parseFillNa() (ast.Statement, error) {
	p.advance() // consume FILL
	if err := p.expectKeyword("NA"); err != nil {
		return nil, fmt.Errorf("fill na: %w", err)
	}
	tbl, col, err := p.parseTableColumn()
	if err != nil {
		return nil, fmt.Errorf("fill na: %w", err)
	}
	if err := p.expectKeyword("WITH"); err != nil {
		return nil, fmt.Errorf("fill na: %w", err)
	}

	s := &ast.FillNaStmt{Table: tbl, Column: col}
	switch {
	case p.accept("MEAN"):
		s.Method = ast.FillMean
	case p.accept("MEDIAN"):
		s.Method = ast.FillMedian
	case p.accept("MODE"):
		s.Method = ast.FillMode
	default:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, fmt.Errorf("fill na: %w", err)
		}
		s.Method = ast.FillValue
		s.Value = lit
	}
	return s, nil
}

func (p *Parser) parseDrop() (ast.Statement, error) {
	p.advance() // consume DROP
	switch {
	case p.accept("NA"):
		return p.parseDropNa()
	case p.accept("ROW"):
		n, err := p.parseInt()
		if err != nil {
			return nil, fmt.Errorf("drop row: %w", err)
		}
		if err := p.expectKeyword("FROM"); err != nil {
			return nil, fmt.Errorf("drop row: %w", err)
		}
		tbl, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("drop row: %w", err)
		}
		return &ast.DropStmt{Table: tbl, Row: n}, nil
	case p.accept("COLUMN"):
		col, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("drop column: %w", err)
		}
		if err := p.expectKeyword("FROM"); err != nil {
			return nil, fmt.Errorf("drop column: %w", err)
		}
		tbl, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("drop column: %w", err)
		}
		return &ast.DropStmt{Table: tbl, Column: col}, nil
	}
	tok := p.peek()
	return nil, fmt.Errorf("drop: expected NA, ROW or COLUMN, got %q at position %d", tok.Val, tok.Pos)
}

func (p *Parser) parseDropNa() (ast.Statement, error) {
	tbl, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("drop na: %w", err)
	}
	s := &ast.DropNaStmt{Table: tbl}

	switch {
	case p.accept("ROWS"), p.accept("ROW"):
		s.Axis = ast.AxisRows
	case p.accept("COLUMNS"), p.accept("COLUMN"):
		s.Axis = ast.AxisColumns
	}
	if p.accept("WHERE") {
		switch {
		case p.accept("ANY"):
			s.How = ast.HowAny
		case p.accept("ALL"):
			s.How = ast.HowAll
		default:
			tok := p.peek()
			return nil, fmt.Errorf("drop na: expected ANY or ALL, got %q at position %d", tok.Val, tok.Pos)
		}
	}
	if p.accept("IN") {
		if s.Columns, err = p.parseNameList(); err != nil {
			return nil, fmt.Errorf("drop na: %w", err)
		}
	}
	return s, nil
}

func (p *Parser) parseClean() (ast.Statement, error) {
	p.advance() // consume CLEAN
	numeric := false
	switch {
	case p.accept("NUMERIC"):
		numeric = true
	case p.accept("TEXT"):
	default:
		tok := p.peek()
		return nil, fmt.Errorf("clean: expected NUMERIC or TEXT, got %q at position %d", tok.Val, tok.Pos)
	}

	tbl, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	var cols []string
	if !p.peek().Is("REMOVE") {
		if cols, err = p.parseNameList(); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}
	if err := p.expectKeyword("REMOVE"); err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}

	if numeric {
		if err := p.expectKeyword("STRINGS"); err != nil {
			return nil, fmt.Errorf("clean numeric: %w", err)
		}
		return &ast.RemoveStringsStmt{Table: tbl, Columns: cols}, nil
	}
	if err := p.expectKeyword("NUMBERS"); err != nil {
		return nil, fmt.Errorf("clean text: %w", err)
	}
	return &ast.RemoveNumbersStmt{Table: tbl, Columns: cols}, nil
}

func (p *Parser) parseReplace() (ast.Statement, error) {
	p.advance() // consume REPLACE
	tbl, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	if err := p.expectKeyword("ROW"); err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	row, err := p.parseInt()
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	if err := p.expectKeyword("COLUMN"); err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	col, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	if err := p.expectKeyword("WITH"); err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}

	tok := p.advance()
	var raw string
	switch tok.Type {
	case lexer.TokenString:
		raw = "'" + tok.Val + "'"
	case lexer.TokenNumber, lexer.TokenIdent:
		raw = tok.Val
	default:
		return nil, fmt.Errorf("replace: expected value, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return &ast.ReplaceCellStmt{Table: tbl, Row: row, Column: col, Raw: raw}, nil
}

func (p *Parser) parseFilterOutliers() (ast.Statement, error) {
	p.advance() // consume FILTER
	if err := p.expectKeyword("OUTLIERS"); err != nil {
		return nil, fmt.Errorf("filter outliers: %w", err)
	}
	tbl, col, err := p.parseTableColumn()
	if err != nil {
		return nil, fmt.Errorf("filter outliers: %w", err)
	}
	s := &ast.FilterOutliersStmt{Table: tbl, Column: col, Method: ast.OutlierIQR}
	if !p.accept("WITH") {
		return s, nil
	}

	switch {
	case p.accept("IQR"):
		s.Method = ast.OutlierIQR
	case p.accept("ZSCORE"):
		s.Method = ast.OutlierZScore
	default:
		tok := p.peek()
		return nil, fmt.Errorf("%w: outlier method %q at position %d", ErrUnknownMethod, tok.Val, tok.Pos)
	}
	if p.peek().Type == lexer.TokenLParen {
		p.advance()
		tok, err := p.expect(lexer.TokenNumber)
		if err != nil {
			return nil, fmt.Errorf("filter outliers: %w", err)
		}
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("filter outliers: threshold must not be negative, got %q", tok.Val)
		}
		s.Threshold = f
		s.HasThreshold = true
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, fmt.Errorf("filter outliers: %w", err)
		}
	}
	return s, nil
}

func (p *Parser) parseNormalize() (ast.Statement, error) {
	p.advance() // consume NORMALIZE
	tbl, col, err := p.parseTableColumn()
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	s := &ast.NormalizeStmt{Table: tbl, Column: col, Method: ast.NormMinMax}
	if !p.accept("WITH") {
		return s, nil
	}
	switch {
	case p.accept("MINMAX"):
		s.Method = ast.NormMinMax
	case p.accept("ZSCORE"):
		s.Method = ast.NormZScore
	default:
		tok := p.peek()
		return nil, fmt.Errorf("%w: normalization method %q at position %d", ErrUnknownMethod, tok.Val, tok.Pos)
	}
	return s, nil
}

func (p *Parser) parsePlot() (ast.Statement, error) {
	p.advance() // consume PLOT
	cols, err := p.parseNameList()
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	tbl, err := p.parseName()
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	tok := p.advance()
	kind, ok := ast.ParsePlotKind(tok.Val)
	if tok.Type != lexer.TokenIdent || !ok {
		return nil, fmt.Errorf("%w: plot kind %q at position %d", ErrUnknownMethod, tok.Val, tok.Pos)
	}
	return &ast.PlotStmt{Columns: cols, Table: tbl, Kind: kind}, nil
}

// --- Helpers ---

func (p *Parser) parseTableColumn() (string, string, error) {
	tbl, err := p.parseName()
	if err != nil {
		return "", "", err
	}
	col, err := p.parseName()
	if err != nil {
		return "", "", err
	}
	return tbl, col, nil
}

func (p *Parser) parseInt() (int, error) {
	tok, err := p.expect(lexer.TokenNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Val)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q at position %d", tok.Val, tok.Pos)
	}
	return n, nil
}

func (p *Parser) parseName() (string, error) {
	tok := p.advance()
	if tok.Type != lexer.TokenIdent && tok.Type != lexer.TokenBacktickIdent {
		return "", fmt.Errorf("expected name, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return tok.Val, nil
}

// parseNameList reads one or more names separated by commas.
func (p *Parser) parseNameList() ([]string, error) {
	var names []string
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.peek().Type != lexer.TokenComma {
			return names, nil
		}
		p.advance()
	}
}
