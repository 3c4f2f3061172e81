package ast

// Visitor is called for each node during a Walk. Returning false stops the
// descent into that node's children.
type Visitor func(Node) bool

// Walk performs a depth-first traversal of the tree rooted at node.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Body {
			Walk(s, v)
		}
	case *AssignmentStatement:
		Walk(n.Name, v)
		Walk(n.Init, v)
	case *ExpressionStatement:
		Walk(n.Expression, v)
	case *DashboardStatement:
		if n.Refresh != nil {
			Walk(n.Refresh, v)
		}
		for _, w := range n.Widgets {
			Walk(w, v)
		}
	case *AggregateExpression:
		if n.Field != nil {
			Walk(n.Field, v)
		}
		Walk(n.Dataset, v)
		if n.Where != nil {
			Walk(n.Where, v)
		}
		for _, g := range n.GroupBy {
			Walk(g, v)
		}
		if n.OrderBy != nil {
			Walk(n.OrderBy, v)
		}
	case *TopExpression:
		Walk(n.Target, v)
		Walk(n.By, v)
		Walk(n.Dataset, v)
		if n.Where != nil {
			Walk(n.Where, v)
		}
	case *BinaryExpression:
		Walk(n.Left, v)
		Walk(n.Right, v)
	case *UnaryExpression:
		Walk(n.Argument, v)
	case *ComparisonExpression:
		Walk(n.Left, v)
		Walk(n.Right, v)
	case *LogicalExpression:
		Walk(n.Left, v)
		Walk(n.Right, v)
	case *BetweenExpression:
		Walk(n.From, v)
		Walk(n.To, v)
	case *OrderClause:
		Walk(n.Field, v)
	case *KPIWidget:
		Walk(n.Variable, v)
		for _, c := range n.Colors {
			Walk(c, v)
		}
	case *ChartWidget:
		Walk(n.Dataset, v)
		if n.Period != nil {
			Walk(n.Period, v)
		}
		if n.GroupBy != nil {
			Walk(n.GroupBy, v)
		}
	case *TableWidget:
		if n.Dataset != nil {
			Walk(n.Dataset, v)
		}
		if n.Top != nil {
			Walk(n.Top, v)
		}
		if n.Where != nil {
			Walk(n.Where, v)
		}
		if n.OrderBy != nil {
			Walk(n.OrderBy, v)
		}
	case *GaugeWidget:
		Walk(n.Variable, v)
	}
}

// Datasets collects the distinct dataset names a program queries, in first
// reference order.
func Datasets(prog *Program) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(id *Identifier) {
		if id != nil && !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
	}
	Walk(prog, func(n Node) bool {
		switch x := n.(type) {
		case *AggregateExpression:
			add(x.Dataset)
		case *TopExpression:
			add(x.Dataset)
		case *ChartWidget:
			add(x.Dataset)
		case *TableWidget:
			add(x.Dataset)
		}
		return true
	})
	return names
}
