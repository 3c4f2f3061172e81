// Package parser turns TQL source text into an abstract syntax tree.
//
// TQL programs are small, so the parser is a plain recursive descent over the
// full token stream. The first error aborts the whole compile; there are no
// partial dashboards.
package parser

import (
	"fmt"
	"strconv"

	"github.com/victorcalife/tql/ast"
)

// SyntaxError is malformed grammar, reported with the source position of the
// offending token.
type SyntaxError struct {
	Pos      ast.Position
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: expected %s, found %s", e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

// Parse scans and parses a TQL program.
func Parse(src string) (*ast.Program, error) {
	toks, err := Scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) peek() Token { return p.toks[p.i] }
func (p *parser) peekAt(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}
func (p *parser) advance() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) at(k TokenKind) bool { return p.peek().Kind == k }

func (p *parser) atKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == KEYWORD && t.Lexeme == kw
}

func (p *parser) atAnyKeyword(kws ...string) bool {
	t := p.peek()
	if t.Kind != KEYWORD {
		return false
	}
	for _, kw := range kws {
		if t.Lexeme == kw {
			return true
		}
	}
	return false
}

func (p *parser) errExpected(expected string) error {
	t := p.peek()
	return &SyntaxError{Pos: t.Pos, Expected: expected, Found: t.String()}
}

func (p *parser) expect(k TokenKind) (Token, error) {
	if !p.at(k) {
		return Token{}, p.errExpected(k.String())
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(kw string) (Token, error) {
	if !p.atKeyword(kw) {
		return Token{}, p.errExpected(kw)
	}
	return p.advance(), nil
}

func loc(start ast.Position) *ast.BaseNode {
	return &ast.BaseNode{Loc: &ast.SourceLocation{Start: start, End: start}}
}

func (p *parser) parseProgram() (*ast.Program, error) {
	start := p.peek().Pos
	prog := &ast.Program{BaseNode: loc(start)}
	for !p.at(EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	if p.atKeyword("DASHBOARD") {
		return p.parseDashboard()
	}
	start := p.peek().Pos
	if p.at(IDENT) && p.peekAt(1).Kind == EQ {
		name := p.advance()
		p.advance() // =
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.AssignmentStatement{
			BaseNode: loc(start),
			Name:     &ast.Identifier{BaseNode: loc(name.Pos), Name: name.Lexeme},
			Init:     init,
		}, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{BaseNode: loc(start), Expression: expr}, nil
}

// parseDashboard parses:
//
//	DASHBOARD "name" [ATUALIZAR_A_CADA n unit] : widget; widget; ...
func (p *parser) parseDashboard() (*ast.DashboardStatement, error) {
	start := p.advance().Pos // DASHBOARD
	name, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	d := &ast.DashboardStatement{BaseNode: loc(start), Name: name.Lexeme}

	for !p.at(COLON) {
		if p.at(COMMA) {
			p.advance()
			continue
		}
		if p.atKeyword("ATUALIZAR_A_CADA") {
			rstart := p.advance().Pos
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			unit, err := p.parseTimeUnitKeyword()
			if err != nil {
				return nil, err
			}
			d.Refresh = &ast.RefreshClause{BaseNode: loc(rstart), Count: n, Unit: unit}
			continue
		}
		return nil, p.errExpected(":")
	}
	p.advance() // :

	for p.atAnyKeyword("KPI", "GRAFICO", "TABELA", "GAUGE") {
		w, err := p.parseWidget()
		if err != nil {
			return nil, err
		}
		d.Widgets = append(d.Widgets, w)
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
	}
	if len(d.Widgets) == 0 {
		return nil, p.errExpected("widget declaration (KPI, GRAFICO, TABELA or GAUGE)")
	}
	return d, nil
}

func (p *parser) parseWidget() (ast.WidgetDecl, error) {
	switch p.peek().Lexeme {
	case "KPI":
		return p.parseKPI()
	case "GRAFICO":
		return p.parseChart()
	case "TABELA":
		return p.parseTable()
	case "GAUGE":
		return p.parseGauge()
	}
	return nil, p.errExpected("widget declaration")
}

// skipComma consumes an optional clause separator.
func (p *parser) skipComma() {
	if p.at(COMMA) {
		p.advance()
	}
}

func (p *parser) parseKPI() (*ast.KPIWidget, error) {
	start := p.advance().Pos // KPI
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	w := &ast.KPIWidget{
		BaseNode: loc(start),
		Variable: &ast.Identifier{BaseNode: loc(name.Pos), Name: name.Lexeme},
	}
	for {
		p.skipComma()
		switch {
		case p.atKeyword("TITULO"):
			p.advance()
			s, err := p.expect(STRING)
			if err != nil {
				return nil, err
			}
			w.Title = s.Lexeme
		case p.atKeyword("FORMATO"):
			p.advance()
			f, err := p.parseFormatKind()
			if err != nil {
				return nil, err
			}
			w.Format = f
		case p.atKeyword("MOEDA"):
			p.advance()
			m, err := p.expect(MONEY)
			if err != nil {
				return nil, err
			}
			w.Format = ast.FormatCurrency
			w.Currency = m.Lexeme
		case p.atKeyword("COR"):
			rule, err := p.parseColorRule()
			if err != nil {
				return nil, err
			}
			w.Colors = append(w.Colors, rule)
		default:
			return w, nil
		}
	}
}

func (p *parser) parseFormatKind() (ast.FormatKind, error) {
	if p.at(PERCENT) {
		p.advance()
		return ast.FormatPercent, nil
	}
	if p.at(IDENT) {
		switch p.peek().Lexeme {
		case "decimal":
			p.advance()
			return ast.FormatDecimal, nil
		case "inteiro":
			p.advance()
			return ast.FormatInteger, nil
		case "numero":
			p.advance()
			return ast.FormatNumber, nil
		}
	}
	if p.atKeyword("MOEDA") {
		p.advance()
		return ast.FormatCurrency, nil
	}
	return 0, p.errExpected("format (%, decimal, inteiro, numero)")
}

// parseColorRule parses COR color [SE cmp threshold].
func (p *parser) parseColorRule() (*ast.ColorRule, error) {
	start := p.advance().Pos // COR
	c, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	rule := &ast.ColorRule{BaseNode: loc(start), Color: c.Lexeme, Always: true}
	if p.atKeyword("SE") {
		p.advance()
		op, err := p.parseComparisonOp()
		if err != nil {
			return nil, err
		}
		v, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		rule.Operator = op
		rule.Threshold = v
		rule.Always = false
	}
	return rule, nil
}

func (p *parser) parseComparisonOp() (ast.OperatorKind, error) {
	switch p.peek().Kind {
	case EQ:
		p.advance()
		return ast.EqualOperator, nil
	case NEQ:
		p.advance()
		return ast.NotEqualOperator, nil
	case GT:
		p.advance()
		return ast.GreaterThanOperator, nil
	case GTE:
		p.advance()
		return ast.GreaterThanEqualOperator, nil
	case LT:
		p.advance()
		return ast.LessThanOperator, nil
	case LTE:
		p.advance()
		return ast.LessThanEqualOperator, nil
	}
	if p.atKeyword("EM") {
		p.advance()
		return ast.InOperator, nil
	}
	return 0, p.errExpected("comparison operator")
}

func (p *parser) parseChart() (ast.WidgetDecl, error) {
	start := p.advance().Pos // GRAFICO
	var kind string
	switch {
	case p.at(IDENT):
		kind = p.advance().Lexeme
	case p.atKeyword("GAUGE"):
		p.advance()
		kind = "gauge"
	default:
		return nil, p.errExpected("chart kind")
	}
	if _, err := p.expectKeyword("DE"); err != nil {
		return nil, err
	}
	ds, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	// GRAFICO gauge DE x MINIMO .. MAXIMO .. META .. is gauge sugar.
	if kind == "gauge" {
		g := &ast.GaugeWidget{
			BaseNode: loc(start),
			Variable: &ast.Identifier{BaseNode: loc(ds.Pos), Name: ds.Lexeme},
			Max:      100,
		}
		return p.parseGaugeClauses(g)
	}

	w := &ast.ChartWidget{
		BaseNode: loc(start),
		Kind:     kind,
		Dataset:  &ast.Identifier{BaseNode: loc(ds.Pos), Name: ds.Lexeme},
	}
	for {
		p.skipComma()
		switch {
		case p.atKeyword("TITULO"):
			p.advance()
			s, err := p.expect(STRING)
			if err != nil {
				return nil, err
			}
			w.Title = s.Lexeme
		case p.atKeyword("PERIODO"):
			p.advance()
			period, err := p.parseTemporalValue()
			if err != nil {
				return nil, err
			}
			w.Period = period
		case p.atKeyword("AGRUPADO"):
			p.advance()
			if _, err := p.expectKeyword("POR"); err != nil {
				return nil, err
			}
			f, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			w.GroupBy = &ast.Identifier{BaseNode: loc(f.Pos), Name: f.Lexeme}
		case p.atKeyword("TOP"):
			p.advance()
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			w.Top = n
		case p.atKeyword("CORES"):
			p.advance()
			colors, err := p.parseColorList()
			if err != nil {
				return nil, err
			}
			w.Colors = colors
		case p.atKeyword("ALTURA"):
			p.advance()
			n, err := p.parsePixels()
			if err != nil {
				return nil, err
			}
			w.Height = n
		case p.atKeyword("LARGURA"):
			p.advance()
			n, err := p.parsePixels()
			if err != nil {
				return nil, err
			}
			w.Width = n
		default:
			return w, nil
		}
	}
}

func (p *parser) parseColorList() ([]string, error) {
	if p.at(LBRACKET) {
		p.advance()
		var colors []string
		for {
			c, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			colors = append(colors, c.Lexeme)
			if p.at(COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return colors, nil
	}
	c, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	return []string{c.Lexeme}, nil
}

// parsePixels reads an integer optionally suffixed with px.
func (p *parser) parsePixels() (int64, error) {
	n, err := p.parseInt()
	if err != nil {
		return 0, err
	}
	if p.at(IDENT) && p.peek().Lexeme == "px" {
		p.advance()
	}
	return n, nil
}

func (p *parser) parseTable() (*ast.TableWidget, error) {
	start := p.advance().Pos // TABELA
	w := &ast.TableWidget{BaseNode: loc(start)}

	switch {
	case p.atKeyword("DE"):
		p.advance()
		ds, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		w.Dataset = &ast.Identifier{BaseNode: loc(ds.Pos), Name: ds.Lexeme}
	case p.atKeyword("TOP"):
		top, err := p.parseTop()
		if err != nil {
			return nil, err
		}
		w.Top = top
	default:
		return nil, p.errExpected("DE or TOP")
	}

	for {
		p.skipComma()
		switch {
		case p.atKeyword("ONDE"):
			p.advance()
			pred, err := p.parsePredicate()
			if err != nil {
				return nil, err
			}
			w.Where = pred
		case p.atKeyword("ORDENADO"):
			ob, err := p.parseOrderClause()
			if err != nil {
				return nil, err
			}
			w.OrderBy = ob
		case p.atKeyword("LIMITADO"):
			p.advance()
			if _, err := p.expectKeyword("A"); err != nil {
				return nil, err
			}
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			w.Limit = n
		case p.atKeyword("TITULO"):
			p.advance()
			s, err := p.expect(STRING)
			if err != nil {
				return nil, err
			}
			w.Title = s.Lexeme
		default:
			return w, nil
		}
	}
}

func (p *parser) parseGauge() (*ast.GaugeWidget, error) {
	start := p.advance().Pos // GAUGE
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	g := &ast.GaugeWidget{
		BaseNode: loc(start),
		Variable: &ast.Identifier{BaseNode: loc(name.Pos), Name: name.Lexeme},
		Max:      100,
	}
	return p.parseGaugeClauses(g)
}

func (p *parser) parseGaugeClauses(g *ast.GaugeWidget) (*ast.GaugeWidget, error) {
	for {
		p.skipComma()
		switch {
		case p.atKeyword("MINIMO"):
			p.advance()
			v, err := p.parseSignedNumber()
			if err != nil {
				return nil, err
			}
			g.Min = v
		case p.atKeyword("MAXIMO"):
			p.advance()
			v, err := p.parseSignedNumber()
			if err != nil {
				return nil, err
			}
			g.Max = v
		case p.atKeyword("META"):
			p.advance()
			v, err := p.parseSignedNumber()
			if err != nil {
				return nil, err
			}
			g.Target = &v
		case p.atKeyword("TITULO"):
			p.advance()
			s, err := p.expect(STRING)
			if err != nil {
				return nil, err
			}
			g.Title = s.Lexeme
		default:
			return g, nil
		}
	}
}

func (p *parser) parseOrderClause() (*ast.OrderClause, error) {
	start := p.advance().Pos // ORDENADO
	if _, err := p.expectKeyword("POR"); err != nil {
		return nil, err
	}
	f, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	oc := &ast.OrderClause{
		BaseNode: loc(start),
		Field:    &ast.Identifier{BaseNode: loc(f.Pos), Name: f.Lexeme},
	}
	switch {
	case p.atKeyword("ASC"):
		p.advance()
	case p.atKeyword("DESC"):
		p.advance()
		oc.Direction = ast.SortDesc
	}
	return oc, nil
}

// parseExpression is the arithmetic entry point: + and - over terms.
func (p *parser) parseExpression() (ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.at(PLUS) || p.at(MINUS) {
		opTok := p.advance()
		op := ast.AdditionOperator
		if opTok.Kind == MINUS {
			op = ast.SubtractionOperator
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{BaseNode: loc(opTok.Pos), Operator: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(STAR) || p.at(SLASH) {
		opTok := p.advance()
		op := ast.MultiplicationOperator
		if opTok.Kind == SLASH {
			op = ast.DivisionOperator
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{BaseNode: loc(opTok.Pos), Operator: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expression, error) {
	if p.at(MINUS) {
		start := p.advance().Pos
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{BaseNode: loc(start), Operator: ast.SubtractionOperator, Argument: arg}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	t := p.peek()
	switch t.Kind {
	case INT:
		p.advance()
		v, err := strconv.ParseInt(t.Lexeme, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.Pos, Expected: "integer", Found: t.Lexeme}
		}
		return &ast.IntegerLiteral{BaseNode: loc(t.Pos), Value: v}, nil
	case NUMBER:
		p.advance()
		v, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.Pos, Expected: "number", Found: t.Lexeme}
		}
		return &ast.NumberLiteral{BaseNode: loc(t.Pos), Value: v}, nil
	case STRING:
		p.advance()
		return &ast.StringLiteral{BaseNode: loc(t.Pos), Value: t.Lexeme}, nil
	case MONEY:
		p.advance()
		v, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		return &ast.MoneyLiteral{BaseNode: loc(t.Pos), Symbol: t.Lexeme, Value: v}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case IDENT:
		p.advance()
		return &ast.Identifier{BaseNode: loc(t.Pos), Name: t.Lexeme}, nil
	case KEYWORD:
		switch t.Lexeme {
		case "SOMAR", "CONTAR", "MEDIA", "MAX", "MIN":
			return p.parseAggregate()
		case "MES", "ANO", "SEMANA", "DIA", "HORA", "MINUTO", "HOJE", "AGORA", "ULTIMOS", "ENTRE":
			return p.parseTemporalValue()
		case "TOP":
			return p.parseTop()
		}
	}
	return nil, p.errExpected("expression")
}

// parseAggregate parses an aggregate call. Forms:
//
//	SOMAR valor DE vendas [ONDE ...] [AGRUPADO POR ...] [ORDENADO POR ...] [LIMITADO A n]
//	CONTAR funcionarios [ONDE ...]      bare row count, no DE
func (p *parser) parseAggregate() (*ast.AggregateExpression, error) {
	t := p.advance()
	op, _ := ast.AggregateLookup(t.Lexeme)
	agg := &ast.AggregateExpression{BaseNode: loc(t.Pos), Op: op}

	first, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if p.atKeyword("DE") {
		p.advance()
		ds, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		agg.Field = &ast.Identifier{BaseNode: loc(first.Pos), Name: first.Lexeme}
		agg.Dataset = &ast.Identifier{BaseNode: loc(ds.Pos), Name: ds.Lexeme}
	} else {
		agg.Dataset = &ast.Identifier{BaseNode: loc(first.Pos), Name: first.Lexeme}
	}

	for {
		switch {
		case p.atKeyword("ONDE"):
			p.advance()
			pred, err := p.parsePredicate()
			if err != nil {
				return nil, err
			}
			agg.Where = pred
		case p.atKeyword("AGRUPADO"):
			p.advance()
			if _, err := p.expectKeyword("POR"); err != nil {
				return nil, err
			}
			for {
				f, err := p.expect(IDENT)
				if err != nil {
					return nil, err
				}
				agg.GroupBy = append(agg.GroupBy, &ast.Identifier{BaseNode: loc(f.Pos), Name: f.Lexeme})
				if p.at(COMMA) && p.peekAt(1).Kind == IDENT {
					p.advance()
					continue
				}
				break
			}
		case p.atKeyword("ORDENADO"):
			ob, err := p.parseOrderClause()
			if err != nil {
				return nil, err
			}
			agg.OrderBy = ob
		case p.atKeyword("LIMITADO"):
			p.advance()
			if _, err := p.expectKeyword("A"); err != nil {
				return nil, err
			}
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			agg.Limit = n
		default:
			return agg, nil
		}
	}
}

// parseTop parses TOP n target POR field DE dataset [ONDE ...].
func (p *parser) parseTop() (*ast.TopExpression, error) {
	start := p.advance().Pos // TOP
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	target, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("POR"); err != nil {
		return nil, err
	}
	by, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	top := &ast.TopExpression{
		BaseNode: loc(start),
		N:        n,
		Target:   &ast.Identifier{BaseNode: loc(target.Pos), Name: target.Lexeme},
		By:       &ast.Identifier{BaseNode: loc(by.Pos), Name: by.Lexeme},
	}
	if p.atKeyword("DE") {
		p.advance()
		ds, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		top.Dataset = &ast.Identifier{BaseNode: loc(ds.Pos), Name: ds.Lexeme}
	} else {
		// TOP 10 vendedores POR comissao: the target doubles as dataset
		top.Dataset = top.Target
	}
	if p.atKeyword("ONDE") {
		p.advance()
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		top.Where = pred
	}
	return top, nil
}

// parsePredicate parses ONDE conditions. E binds tighter than OU.
func (p *parser) parsePredicate() (ast.Expression, error) {
	left, err := p.parseAndPredicate()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("OU") {
		opTok := p.advance()
		right, err := p.parseAndPredicate()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{BaseNode: loc(opTok.Pos), Operator: ast.OrOperator, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAndPredicate() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("E") {
		opTok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{BaseNode: loc(opTok.Pos), Operator: ast.AndOperator, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (ast.Expression, error) {
	f, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	field := &ast.Identifier{BaseNode: loc(f.Pos), Name: f.Lexeme}
	opPos := p.peek().Pos
	op, err := p.parseComparisonOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseComparisonOperand()
	if err != nil {
		return nil, err
	}
	return &ast.ComparisonExpression{BaseNode: loc(opPos), Operator: op, Left: field, Right: rhs}, nil
}

func (p *parser) parseComparisonOperand() (ast.Expression, error) {
	t := p.peek()
	switch t.Kind {
	case STRING:
		p.advance()
		return &ast.StringLiteral{BaseNode: loc(t.Pos), Value: t.Lexeme}, nil
	case INT, NUMBER, MINUS, MONEY:
		return p.parseNumericOperand()
	case KEYWORD:
		switch t.Lexeme {
		case "MES", "ANO", "SEMANA", "DIA", "HORA", "MINUTO", "HOJE", "AGORA", "ULTIMOS", "ENTRE":
			return p.parseTemporalValue()
		}
	case IDENT:
		p.advance()
		return &ast.Identifier{BaseNode: loc(t.Pos), Name: t.Lexeme}, nil
	}
	return nil, p.errExpected("comparison value")
}

func (p *parser) parseNumericOperand() (ast.Expression, error) {
	t := p.peek()
	if t.Kind == MONEY {
		p.advance()
		v, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		return &ast.MoneyLiteral{BaseNode: loc(t.Pos), Symbol: t.Lexeme, Value: v}, nil
	}
	v, err := p.parseSignedNumber()
	if err != nil {
		return nil, err
	}
	if v == float64(int64(v)) && t.Kind != NUMBER {
		return &ast.IntegerLiteral{BaseNode: loc(t.Pos), Value: int64(v)}, nil
	}
	return &ast.NumberLiteral{BaseNode: loc(t.Pos), Value: v}, nil
}

// parseTemporalValue parses MES(n), HOJE, AGORA, ULTIMOS unit(n) and
// ENTRE a E b.
func (p *parser) parseTemporalValue() (ast.Expression, error) {
	t := p.peek()
	switch t.Lexeme {
	case "HOJE":
		p.advance()
		return &ast.TemporalExpression{BaseNode: loc(t.Pos), Unit: ast.UnitDay, Offset: 0}, nil
	case "AGORA":
		p.advance()
		return &ast.TemporalExpression{BaseNode: loc(t.Pos), Unit: ast.UnitMinute, Offset: 0, Instant: true}, nil
	case "ULTIMOS":
		p.advance()
		inner, err := p.parseUnitCall()
		if err != nil {
			return nil, err
		}
		return &ast.LastExpression{BaseNode: loc(t.Pos), Unit: inner.Unit, Count: inner.Offset}, nil
	case "ENTRE":
		p.advance()
		from, err := p.parseSimpleTemporal()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("E"); err != nil {
			return nil, err
		}
		to, err := p.parseSimpleTemporal()
		if err != nil {
			return nil, err
		}
		return &ast.BetweenExpression{BaseNode: loc(t.Pos), From: from, To: to}, nil
	}
	return p.parseUnitCall()
}

// parseSimpleTemporal parses a single unit window: MES(-1), HOJE, AGORA.
func (p *parser) parseSimpleTemporal() (*ast.TemporalExpression, error) {
	t := p.peek()
	switch t.Lexeme {
	case "HOJE":
		p.advance()
		return &ast.TemporalExpression{BaseNode: loc(t.Pos), Unit: ast.UnitDay, Offset: 0}, nil
	case "AGORA":
		p.advance()
		return &ast.TemporalExpression{BaseNode: loc(t.Pos), Unit: ast.UnitMinute, Offset: 0, Instant: true}, nil
	}
	return p.parseUnitCall()
}

// parseUnitCall parses unit(offset): MES(-1), DIA(7), ANO(0).
func (p *parser) parseUnitCall() (*ast.TemporalExpression, error) {
	t := p.peek()
	unit, ok := ast.TimeUnitLookup(t.Lexeme)
	if !ok {
		return nil, p.errExpected("temporal unit (MES, ANO, SEMANA, DIA, HORA, MINUTO)")
	}
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	neg := false
	if p.at(MINUS) {
		p.advance()
		neg = true
	}
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if neg {
		n = -n
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &ast.TemporalExpression{BaseNode: loc(t.Pos), Unit: unit, Offset: n}, nil
}

func (p *parser) parseTimeUnitKeyword() (ast.TimeUnit, error) {
	t := p.peek()
	if unit, ok := ast.TimeUnitLookup(t.Lexeme); ok {
		p.advance()
		return unit, nil
	}
	return 0, p.errExpected("time unit")
}

func (p *parser) parseInt() (int64, error) {
	t, err := p.expect(INT)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(t.Lexeme, 10, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: t.Pos, Expected: "integer", Found: t.Lexeme}
	}
	return v, nil
}

func (p *parser) parseSignedNumber() (float64, error) {
	neg := false
	if p.at(MINUS) {
		p.advance()
		neg = true
	}
	t := p.peek()
	if t.Kind != INT && t.Kind != NUMBER {
		return 0, p.errExpected("number")
	}
	p.advance()
	v, err := strconv.ParseFloat(t.Lexeme, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: t.Pos, Expected: "number", Found: t.Lexeme}
	}
	if neg {
		v = -v
	}
	return v, nil
}
