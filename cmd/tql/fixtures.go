package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/victorcalife/tql/execute"
	"github.com/victorcalife/tql/execute/executetest"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
)

// loadFixtures builds a catalog and provider for the tenant from a JSON
// fixture of the form {"dataset": [{"field": value, ...}, ...]}. Field types
// are inferred from the rows; RFC 3339 strings become time fields.
func loadFixtures(path, tenant string) (schema.Catalog, execute.Provider, error) {
	var raw map[string][]map[string]interface{}
	if path == "" {
		raw = demoData()
	} else {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, nil, errors.Wrap(err, "parsing fixture file")
		}
	}

	catalog := schema.NewMapCatalog()
	data := map[string]map[string][]plan.Row{tenant: {}}
	for name, rows := range raw {
		ds := &schema.Dataset{Name: name, Fields: make(map[string]schema.FieldType)}
		var converted []plan.Row
		for _, r := range rows {
			row := make(plan.Row, len(r))
			for field, v := range r {
				value, ft := convert(v)
				row[field] = value
				if _, ok := ds.Fields[field]; !ok {
					ds.Fields[field] = ft
				}
			}
			converted = append(converted, row)
		}
		catalog.Register(tenant, ds)
		data[tenant][name] = converted
	}
	return catalog, &executetest.StaticProvider{Data: data}, nil
}

func convert(v interface{}) (interface{}, schema.FieldType) {
	switch x := v.(type) {
	case bool:
		return x, schema.TBool
	case float64:
		return x, schema.TNumber
	case string:
		if ts, err := time.Parse(time.RFC3339, x); err == nil {
			return ts, schema.TTime
		}
		return x, schema.TString
	}
	return v, schema.TString
}

// demoData is a small sales and support fixture anchored to the current
// month so the temporal examples return data.
func demoData() map[string][]map[string]interface{} {
	month := time.Now().Format("2006-01")
	return map[string][]map[string]interface{}{
		"vendas": {
			{"valor": 52000.0, "vendedor": "Ana", "regiao": "sul", "data": month + "-03T10:00:00Z"},
			{"valor": 31500.5, "vendedor": "Bia", "regiao": "sul", "data": month + "-07T15:30:00Z"},
			{"valor": 44000.0, "vendedor": "Caio", "regiao": "norte", "data": month + "-09T09:00:00Z"},
			{"valor": 12750.0, "vendedor": "Ana", "regiao": "leste", "data": month + "-11T11:45:00Z"},
		},
		"tickets": {
			{"status": "aberto", "prioridade": "alta", "sla_ok": true, "abertura": month + "-02T08:00:00Z"},
			{"status": "aberto", "prioridade": "baixa", "sla_ok": false, "abertura": month + "-04T14:00:00Z"},
			{"status": "fechado", "prioridade": "alta", "sla_ok": true, "abertura": month + "-05T16:20:00Z"},
			{"status": "fechado", "prioridade": "media", "sla_ok": true, "abertura": month + "-08T10:10:00Z"},
		},
		"funcionarios": {
			{"nome": "Ana", "departamento": "Comercial", "salario": 8200.0},
			{"nome": "Bia", "departamento": "Comercial", "salario": 7900.0},
			{"nome": "Caio", "departamento": "TI", "salario": 9500.0},
			{"nome": "Davi", "departamento": "TI", "salario": 10100.0},
		},
	}
}
