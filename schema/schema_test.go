package schema

import (
	"testing"

	"github.com/pkg/errors"
)

func TestMapCatalog(t *testing.T) {
	c := NewMapCatalog()
	c.Register("acme", &Dataset{
		Name: "vendas",
		Fields: map[string]FieldType{
			"valor": TNumber,
			"data":  TTime,
		},
	})

	d, err := c.Dataset("acme", "vendas")
	if err != nil {
		t.Fatal(err)
	}
	if ft, ok := d.Field("valor"); !ok || ft != TNumber {
		t.Errorf("valor: got (%v, %v), want (number, true)", ft, ok)
	}

	if _, err := c.Dataset("acme", "clientes"); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("unknown dataset: got %v, want ErrDatasetNotFound", err)
	}
}

func TestMapCatalog_TenantIsolation(t *testing.T) {
	c := NewMapCatalog()
	c.Register("acme", &Dataset{Name: "vendas", Fields: map[string]FieldType{"valor": TNumber}})

	if _, err := c.Dataset("globex", "vendas"); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("cross-tenant lookup: got %v, want ErrDatasetNotFound", err)
	}
}

func TestDataset_FieldNames(t *testing.T) {
	d := &Dataset{Name: "x", Fields: map[string]FieldType{"c": TString, "a": TNumber, "b": TTime}}
	got := d.FieldNames()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
