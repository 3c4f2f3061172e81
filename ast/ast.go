package ast

// Position represents a specific location in the source
type Position struct {
	Line   int `json:"line"`   // Line is the line in the source marked by this position
	Column int `json:"column"` // Column is the column in the source marked by this position
}

// SourceLocation represents the location of a node in the AST
type SourceLocation struct {
	Start  Position `json:"start"`            // Start is the location in the source the node starts
	End    Position `json:"end"`              // End is the location in the source the node ends
	Source *string  `json:"source,omitempty"` // Source is optional raw source
}

// Node represents a node in the TQL abstract syntax tree.
type Node interface {
	node()
	Type() string // Type property is a string that contains the variant type of the node
	Location() *SourceLocation
}

func (*BaseNode) node() {}

func (*AssignmentStatement) node() {}
func (*ExpressionStatement) node() {}
func (*DashboardStatement) node()  {}

func (*AggregateExpression) node()  {}
func (*TopExpression) node()        {}
func (*BinaryExpression) node()     {}
func (*LogicalExpression) node()    {}
func (*ComparisonExpression) node() {}
func (*UnaryExpression) node()      {}
func (*TemporalExpression) node()   {}
func (*LastExpression) node()       {}
func (*BetweenExpression) node()    {}
func (*OrderClause) node()          {}
func (*RefreshClause) node()        {}

func (*KPIWidget) node()   {}
func (*ChartWidget) node() {}
func (*TableWidget) node() {}
func (*GaugeWidget) node() {}
func (*ColorRule) node()   {}

func (*Identifier) node()     {}
func (*StringLiteral) node()  {}
func (*NumberLiteral) node()  {}
func (*IntegerLiteral) node() {}
func (*MoneyLiteral) node()   {}

// BaseNode holds the attributes every expression or statement should have
type BaseNode struct {
	Loc *SourceLocation `json:"location,omitempty"`
}

// Location is the source location of the Node
func (b *BaseNode) Location() *SourceLocation { return b.Loc }

// Program represents a complete program source tree
type Program struct {
	*BaseNode
	Body []Statement `json:"body"`
}

// Type is the abstract type
func (*Program) Type() string { return "Program" }

// Statement is any top level TQL statement.
type Statement interface {
	Node
	stmt()
}

func (*AssignmentStatement) stmt() {}
func (*ExpressionStatement) stmt() {}
func (*DashboardStatement) stmt()  {}

// AssignmentStatement binds the value of an expression to a variable name.
// Later statements in the same program may reference the variable.
type AssignmentStatement struct {
	*BaseNode
	Name *Identifier `json:"name"`
	Init Expression  `json:"init"`
}

// Type is the abstract type
func (*AssignmentStatement) Type() string { return "AssignmentStatement" }

// ExpressionStatement is a bare expression executed for its value,
// typically a standalone aggregate query.
type ExpressionStatement struct {
	*BaseNode
	Expression Expression `json:"expression"`
}

// Type is the abstract type
func (*ExpressionStatement) Type() string { return "ExpressionStatement" }

// DashboardStatement declares a named dashboard, its refresh cadence and
// its widgets, in declaration order.
type DashboardStatement struct {
	*BaseNode
	Name    string         `json:"name"`
	Refresh *RefreshClause `json:"refresh,omitempty"`
	Widgets []WidgetDecl   `json:"widgets"`
}

// Type is the abstract type
func (*DashboardStatement) Type() string { return "DashboardStatement" }

// RefreshClause is the ATUALIZAR_A_CADA declaration of a dashboard.
type RefreshClause struct {
	*BaseNode
	Count int64    `json:"count"`
	Unit  TimeUnit `json:"unit"`
}

// Type is the abstract type
func (*RefreshClause) Type() string { return "RefreshClause" }

// Expression represents an action that can be evaluated to a value.
type Expression interface {
	Node
	expression()
}

func (*AggregateExpression) expression()  {}
func (*TopExpression) expression()        {}
func (*BinaryExpression) expression()     {}
func (*LogicalExpression) expression()    {}
func (*ComparisonExpression) expression() {}
func (*UnaryExpression) expression()      {}
func (*TemporalExpression) expression()   {}
func (*LastExpression) expression()       {}
func (*BetweenExpression) expression()    {}
func (*Identifier) expression()           {}
func (*StringLiteral) expression()        {}
func (*NumberLiteral) expression()        {}
func (*IntegerLiteral) expression()       {}
func (*MoneyLiteral) expression()         {}

// AggregateOp enumerates the TQL aggregate keywords.
type AggregateOp int

const (
	aggBegin AggregateOp = iota
	AggregateSum
	AggregateCount
	AggregateMean
	AggregateMax
	AggregateMin
	aggEnd
)

// AggregateTokens converts AggregateOp to its TQL keyword
var AggregateTokens = map[AggregateOp]string{
	AggregateSum:   "SOMAR",
	AggregateCount: "CONTAR",
	AggregateMean:  "MEDIA",
	AggregateMax:   "MAX",
	AggregateMin:   "MIN",
}

func (o AggregateOp) String() string {
	return AggregateTokens[o]
}

// AggregateLookup converts a TQL keyword to its AggregateOp
func AggregateLookup(kw string) (AggregateOp, bool) {
	op, ok := aggregates[kw]
	return op, ok
}

// AggregateExpression is an aggregate call over a dataset:
//
//	SOMAR valor DE vendas ONDE data = MES(0) AGRUPADO POR regiao
//
// Field is nil for the bare CONTAR form (row count).
type AggregateExpression struct {
	*BaseNode
	Op      AggregateOp   `json:"op"`
	Field   *Identifier   `json:"field,omitempty"`
	Dataset *Identifier   `json:"dataset"`
	Where   Expression    `json:"where,omitempty"`
	GroupBy []*Identifier `json:"groupBy,omitempty"`
	OrderBy *OrderClause  `json:"orderBy,omitempty"`
	Limit   int64         `json:"limit,omitempty"`
}

// Type is the abstract type
func (*AggregateExpression) Type() string { return "AggregateExpression" }

// TopExpression is the ranking shorthand:
//
//	TOP 10 vendedores POR comissao DE vendas ONDE data EM ANO(0)
//
// It groups Dataset rows by Target, sums By per group, and keeps the N
// largest groups.
type TopExpression struct {
	*BaseNode
	N       int64       `json:"n"`
	Target  *Identifier `json:"target"`
	By      *Identifier `json:"by"`
	Dataset *Identifier `json:"dataset"`
	Where   Expression  `json:"where,omitempty"`
}

// Type is the abstract type
func (*TopExpression) Type() string { return "TopExpression" }

// OperatorKind are the arithmetic and comparison operators.
type OperatorKind int

const (
	opBegin OperatorKind = iota
	AdditionOperator
	SubtractionOperator
	MultiplicationOperator
	DivisionOperator
	EqualOperator
	NotEqualOperator
	GreaterThanOperator
	GreaterThanEqualOperator
	LessThanOperator
	LessThanEqualOperator
	InOperator
	opEnd
)

func (o OperatorKind) String() string {
	return OperatorTokens[o]
}

// OperatorLookup converts an operator lexeme to OperatorKind
func OperatorLookup(op string) (OperatorKind, bool) {
	k, ok := operators[op]
	return k, ok
}

// BinaryExpression is arithmetic on two operands.
type BinaryExpression struct {
	*BaseNode
	Operator OperatorKind `json:"operator"`
	Left     Expression   `json:"left"`
	Right    Expression   `json:"right"`
}

// Type is the abstract type
func (*BinaryExpression) Type() string { return "BinaryExpression" }

// UnaryExpression is arithmetic negation.
type UnaryExpression struct {
	*BaseNode
	Operator OperatorKind `json:"operator"`
	Argument Expression   `json:"argument"`
}

// Type is the abstract type
func (*UnaryExpression) Type() string { return "UnaryExpression" }

// ComparisonExpression compares a field against a literal or temporal value
// inside an ONDE predicate. The EM operator tests membership in a resolved
// time window.
type ComparisonExpression struct {
	*BaseNode
	Operator OperatorKind `json:"operator"`
	Left     Expression   `json:"left"`
	Right    Expression   `json:"right"`
}

// Type is the abstract type
func (*ComparisonExpression) Type() string { return "ComparisonExpression" }

// LogicalOperatorKind are the E and OU predicate connectives.
type LogicalOperatorKind int

const (
	logOpBegin LogicalOperatorKind = iota
	AndOperator
	OrOperator
	logOpEnd
)

func (o LogicalOperatorKind) String() string {
	return LogicalOperatorTokens[o]
}

// LogicalExpression combines predicates. E binds tighter than OU; the parser
// fixes this grammatically since TQL has no predicate parentheses.
type LogicalExpression struct {
	*BaseNode
	Operator LogicalOperatorKind `json:"operator"`
	Left     Expression          `json:"left"`
	Right    Expression          `json:"right"`
}

// Type is the abstract type
func (*LogicalExpression) Type() string { return "LogicalExpression" }

// TimeUnit enumerates the TQL calendar units.
type TimeUnit int

const (
	unitBegin TimeUnit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
	unitEnd
)

// TimeUnitTokens converts TimeUnit to its TQL keyword
var TimeUnitTokens = map[TimeUnit]string{
	UnitMinute: "MINUTO",
	UnitHour:   "HORA",
	UnitDay:    "DIA",
	UnitWeek:   "SEMANA",
	UnitMonth:  "MES",
	UnitYear:   "ANO",
}

func (u TimeUnit) String() string {
	return TimeUnitTokens[u]
}

// TimeUnitLookup converts a TQL keyword to its TimeUnit
func TimeUnitLookup(kw string) (TimeUnit, bool) {
	u, ok := timeUnits[kw]
	return u, ok
}

// TemporalExpression is a whole calendar unit offset from the unit containing
// the reference instant: MES(0), DIA(-7), HOJE, AGORA.
// Instant is true only for AGORA, whose window is zero width.
type TemporalExpression struct {
	*BaseNode
	Unit    TimeUnit `json:"unit"`
	Offset  int64    `json:"offset"`
	Instant bool     `json:"instant,omitempty"`
}

// Type is the abstract type
func (*TemporalExpression) Type() string { return "TemporalExpression" }

// LastExpression is the trailing multi-unit window ULTIMOS MES(12):
// the Count whole units ending with the current one.
type LastExpression struct {
	*BaseNode
	Unit  TimeUnit `json:"unit"`
	Count int64    `json:"count"`
}

// Type is the abstract type
func (*LastExpression) Type() string { return "LastExpression" }

// BetweenExpression spans two temporal windows: ENTRE MES(-1) E MES(0).
type BetweenExpression struct {
	*BaseNode
	From *TemporalExpression `json:"from"`
	To   *TemporalExpression `json:"to"`
}

// Type is the abstract type
func (*BetweenExpression) Type() string { return "BetweenExpression" }

// SortDirection is the ORDENADO POR direction.
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

func (d SortDirection) String() string {
	if d == SortDesc {
		return "DESC"
	}
	return "ASC"
}

// OrderClause is ORDENADO POR field [ASC|DESC].
type OrderClause struct {
	*BaseNode
	Field     *Identifier   `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Type is the abstract type
func (*OrderClause) Type() string { return "OrderClause" }

// WidgetDecl is a single renderable dashboard element declaration.
type WidgetDecl interface {
	Node
	widget()
}

func (*KPIWidget) widget()   {}
func (*ChartWidget) widget() {}
func (*TableWidget) widget() {}
func (*GaugeWidget) widget() {}

// FormatKind is the FORMATO clause value.
type FormatKind int

const (
	FormatNumber FormatKind = iota
	FormatInteger
	FormatDecimal
	FormatPercent
	FormatCurrency
)

func (f FormatKind) String() string {
	switch f {
	case FormatInteger:
		return "inteiro"
	case FormatDecimal:
		return "decimal"
	case FormatPercent:
		return "%"
	case FormatCurrency:
		return "moeda"
	default:
		return "numero"
	}
}

// KPIWidget renders a single formatted value:
//
//	KPI vendas_mes TITULO "Vendas", MOEDA R$, COR verde SE >0
type KPIWidget struct {
	*BaseNode
	Variable *Identifier  `json:"variable"`
	Title    string       `json:"title,omitempty"`
	Format   FormatKind   `json:"format"`
	Currency string       `json:"currency,omitempty"`
	Colors   []*ColorRule `json:"colors,omitempty"`
}

// Type is the abstract type
func (*KPIWidget) Type() string { return "KPIWidget" }

// ColorRule is one COR clause. Rules are evaluated in declaration order
// and the first matching rule wins. A rule without SE always matches.
type ColorRule struct {
	*BaseNode
	Color     string       `json:"color"`
	Operator  OperatorKind `json:"operator,omitempty"`
	Threshold float64      `json:"threshold,omitempty"`
	Always    bool         `json:"always,omitempty"`
}

// Type is the abstract type
func (*ColorRule) Type() string { return "ColorRule" }

// ChartWidget renders an aggregate as a chart:
//
//	GRAFICO pizza DE funcionarios AGRUPADO POR departamento TITULO "Equipe"
type ChartWidget struct {
	*BaseNode
	Kind    string      `json:"kind"`
	Dataset *Identifier `json:"dataset"`
	Title   string      `json:"title,omitempty"`
	Period  Expression  `json:"period,omitempty"`
	GroupBy *Identifier `json:"groupBy,omitempty"`
	Top     int64       `json:"top,omitempty"`
	Colors  []string    `json:"colors,omitempty"`
	Height  int64       `json:"height,omitempty"`
	Width   int64       `json:"width,omitempty"`
}

// Type is the abstract type
func (*ChartWidget) Type() string { return "ChartWidget" }

// TableWidget renders rows. Either the DE form with filters and ordering,
// or the TOP ranking form.
type TableWidget struct {
	*BaseNode
	Dataset *Identifier    `json:"dataset,omitempty"`
	Top     *TopExpression `json:"top,omitempty"`
	Where   Expression     `json:"where,omitempty"`
	OrderBy *OrderClause   `json:"orderBy,omitempty"`
	Limit   int64          `json:"limit,omitempty"`
	Title   string         `json:"title,omitempty"`
}

// Type is the abstract type
func (*TableWidget) Type() string { return "TableWidget" }

// GaugeWidget renders a bounded value with an optional target:
//
//	GAUGE sla MINIMO 0, MAXIMO 100, META 95
type GaugeWidget struct {
	*BaseNode
	Variable *Identifier `json:"variable"`
	Min      float64     `json:"min"`
	Max      float64     `json:"max"`
	Target   *float64    `json:"target,omitempty"`
	Title    string      `json:"title,omitempty"`
}

// Type is the abstract type
func (*GaugeWidget) Type() string { return "GaugeWidget" }

// Identifier represents a name that identifies a unique Node
type Identifier struct {
	*BaseNode
	Name string `json:"name"`
}

// Type is the abstract type
func (*Identifier) Type() string { return "Identifier" }

// Literal are the lexical forms for literal expressions.
type Literal interface {
	Expression
	literal()
}

func (*StringLiteral) literal()  {}
func (*NumberLiteral) literal()  {}
func (*IntegerLiteral) literal() {}
func (*MoneyLiteral) literal()   {}

// StringLiteral expressions begin and end with double quote marks.
type StringLiteral struct {
	*BaseNode
	Value string `json:"value"`
}

func (*StringLiteral) Type() string { return "StringLiteral" }

// NumberLiteral represents floating point numbers according to the double
// representations defined by the IEEE-754-1985
type NumberLiteral struct {
	*BaseNode
	Value float64 `json:"value"`
}

// Type is the abstract type
func (*NumberLiteral) Type() string { return "NumberLiteral" }

// IntegerLiteral represents integer numbers.
type IntegerLiteral struct {
	*BaseNode
	Value int64 `json:"value"`
}

// Type is the abstract type
func (*IntegerLiteral) Type() string { return "IntegerLiteral" }

// MoneyLiteral is a currency-prefixed numeric literal, e.g. R$ 100.
type MoneyLiteral struct {
	*BaseNode
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// Type is the abstract type
func (*MoneyLiteral) Type() string { return "MoneyLiteral" }

// OperatorTokens converts OperatorKind to string
var OperatorTokens = map[OperatorKind]string{
	AdditionOperator:         "+",
	SubtractionOperator:      "-",
	MultiplicationOperator:   "*",
	DivisionOperator:         "/",
	EqualOperator:            "=",
	NotEqualOperator:         "<>",
	GreaterThanOperator:      ">",
	GreaterThanEqualOperator: ">=",
	LessThanOperator:         "<",
	LessThanEqualOperator:    "<=",
	InOperator:               "EM",
}

// LogicalOperatorTokens converts LogicalOperatorKind to string
var LogicalOperatorTokens = map[LogicalOperatorKind]string{
	AndOperator: "E",
	OrOperator:  "OU",
}

var operators map[string]OperatorKind
var aggregates map[string]AggregateOp
var timeUnits map[string]TimeUnit

func init() {
	operators = make(map[string]OperatorKind)
	for op := opBegin + 1; op < opEnd; op++ {
		operators[OperatorTokens[op]] = op
	}
	aggregates = make(map[string]AggregateOp)
	for op := aggBegin + 1; op < aggEnd; op++ {
		aggregates[AggregateTokens[op]] = op
	}
	timeUnits = make(map[string]TimeUnit)
	for u := unitBegin + 1; u < unitEnd; u++ {
		timeUnits[TimeUnitTokens[u]] = u
	}
}
