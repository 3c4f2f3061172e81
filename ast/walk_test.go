package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/parser"
)

func TestWalk_VisitsAllNodes(t *testing.T) {
	prog, err := parser.Parse(`total = SOMAR valor DE vendas ONDE data EM MES(0);`)
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	ast.Walk(prog, func(n ast.Node) bool {
		types = append(types, n.Type())
		return true
	})
	want := []string{
		"Program",
		"AssignmentStatement",
		"Identifier",
		"AggregateExpression",
		"Identifier",
		"Identifier",
		"ComparisonExpression",
		"Identifier",
		"TemporalExpression",
	}
	if !cmp.Equal(want, types) {
		t.Errorf("unexpected visit order -want/+got:\n%s", cmp.Diff(want, types))
	}
}

func TestWalk_StopsDescent(t *testing.T) {
	prog, err := parser.Parse(`total = 1 + 2;`)
	if err != nil {
		t.Fatal(err)
	}
	var count int
	ast.Walk(prog, func(n ast.Node) bool {
		count++
		_, isAssign := n.(*ast.AssignmentStatement)
		return !isAssign
	})
	// program and the assignment, nothing below it
	if count != 2 {
		t.Errorf("visited %d nodes, want 2", count)
	}
}

func TestDatasets(t *testing.T) {
	prog, err := parser.Parse(`
x = SOMAR valor DE vendas;
y = CONTAR tickets;
z = SOMAR valor DE vendas;
DASHBOARD "D":
  GRAFICO pizza DE funcionarios AGRUPADO POR depto;
`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"vendas", "tickets", "funcionarios"}
	if got := ast.Datasets(prog); !cmp.Equal(want, got) {
		t.Errorf("got %v, want %v", got, want)
	}
}
