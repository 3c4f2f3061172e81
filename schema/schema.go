// Package schema describes the datasets a tenant may query.
package schema

import (
	"sort"

	"github.com/pkg/errors"
)

// FieldType is the declared type of a dataset column.
type FieldType int

const (
	TString FieldType = iota
	TNumber
	TTime
	TBool
)

func (t FieldType) String() string {
	switch t {
	case TNumber:
		return "number"
	case TTime:
		return "time"
	case TBool:
		return "bool"
	default:
		return "string"
	}
}

// Dataset is one queryable collection of rows.
type Dataset struct {
	Name   string
	Fields map[string]FieldType
}

// Field looks up a column type by name.
func (d *Dataset) Field(name string) (FieldType, bool) {
	t, ok := d.Fields[name]
	return t, ok
}

// FieldNames returns the column names in a stable order.
func (d *Dataset) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for n := range d.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Catalog resolves dataset names for a tenant. Implementations must never
// return another tenant's dataset, whatever the name collision.
type Catalog interface {
	Dataset(tenantID, name string) (*Dataset, error)
}

// ErrDatasetNotFound is returned by a Catalog when the tenant has no dataset
// with the requested name.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrAccessDenied is returned by a Catalog when the dataset exists but
// belongs to a different tenant. MapCatalog never returns it; shared
// catalogs backed by a global namespace do.
var ErrAccessDenied = errors.New("access denied")

// MapCatalog is an in-memory Catalog keyed by tenant.
type MapCatalog struct {
	tenants map[string]map[string]*Dataset
}

// NewMapCatalog builds an empty catalog.
func NewMapCatalog() *MapCatalog {
	return &MapCatalog{tenants: make(map[string]map[string]*Dataset)}
}

// Register adds a dataset for a tenant, replacing any previous definition.
func (c *MapCatalog) Register(tenantID string, d *Dataset) {
	ds, ok := c.tenants[tenantID]
	if !ok {
		ds = make(map[string]*Dataset)
		c.tenants[tenantID] = ds
	}
	ds[d.Name] = d
}

// Dataset implements Catalog.
func (c *MapCatalog) Dataset(tenantID, name string) (*Dataset, error) {
	d, ok := c.tenants[tenantID][name]
	if !ok {
		return nil, errors.Wrapf(ErrDatasetNotFound, "tenant %q dataset %q", tenantID, name)
	}
	return d, nil
}
