// Package tables loads the table catalog: table names with their primary
// key and secondary index key schemas.
package tables

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// Index types
const (
	IndexTypeGSI = "GSI"
	IndexTypeLSI = "LSI"
)

var validate = validator.New()

// Catalog is the set of tables a DB may address
type Catalog struct {
	Tables []TableDefinition `yaml:"tables" validate:"required,min=1,dive"`
}

// TableDefinition describes one table's key schema
type TableDefinition struct {
	SortKey      *KeyAttribute     `yaml:"sort_key"`
	Name         string            `yaml:"name" validate:"required,min=3,max=255"`
	PartitionKey KeyAttribute      `yaml:"partition_key"`
	Indexes      []IndexDefinition `yaml:"indexes" validate:"dive"`
}

// IndexDefinition describes a secondary index's key schema
type IndexDefinition struct {
	SortKey      *KeyAttribute `yaml:"sort_key"`
	Name         string        `yaml:"name" validate:"required,min=3,max=255"`
	Type         string        `yaml:"type" validate:"omitempty,oneof=GSI LSI"`
	PartitionKey KeyAttribute  `yaml:"partition_key"`
}

// KeyAttribute names a key attribute and its scalar type
type KeyAttribute struct {
	Attribute string `yaml:"attribute" validate:"required,max=255"`
	Type      string `yaml:"type" validate:"omitempty,oneof=S N B"`
}

// KeyNames holds the attribute names of a key schema
type KeyNames struct {
	PartitionKey string
	SortKey      string
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse table catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// LoadCatalog reads a YAML catalog from path
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided catalog path
	if err != nil {
		return nil, fmt.Errorf("read table catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Validate runs the struct-tag checks and then the cross-field ones
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("table catalog is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid table catalog: %s", describeValidation(err))
	}

	seen := make(map[string]struct{}, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("invalid table catalog: duplicate table %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if err := validateIndexes(t); err != nil {
			return fmt.Errorf("invalid table catalog: table %s: %w", t.Name, err)
		}
	}
	return nil
}

func validateIndexes(t *TableDefinition) error {
	seen := make(map[string]struct{}, len(t.Indexes))
	for _, idx := range t.Indexes {
		if _, dup := seen[idx.Name]; dup {
			return fmt.Errorf("duplicate index %q", idx.Name)
		}
		seen[idx.Name] = struct{}{}

		if idx.Type == IndexTypeLSI {
			if idx.PartitionKey.Attribute != t.PartitionKey.Attribute {
				return fmt.Errorf("local index %s must share the table partition key %s", idx.Name, t.PartitionKey.Attribute)
			}
			if idx.SortKey == nil {
				return fmt.Errorf("local index %s requires a sort key", idx.Name)
			}
		}
	}
	return nil
}

// describeValidation flattens validator errors into one line
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// Table finds a table by name
func (c *Catalog) Table(name string) (*TableDefinition, error) {
	if c != nil {
		for i := range c.Tables {
			if c.Tables[i].Name == name {
				return &c.Tables[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", queryErrors.ErrTableNotFound, name)
}

// Keys returns the key attribute names for the table or, when index is
// non-empty, for that secondary index.
func (t *TableDefinition) Keys(index string) (KeyNames, error) {
	if index == "" {
		return keyNames(t.PartitionKey, t.SortKey), nil
	}
	for _, idx := range t.Indexes {
		if idx.Name == index {
			return keyNames(idx.PartitionKey, idx.SortKey), nil
		}
	}
	return KeyNames{}, fmt.Errorf("%w: %s on table %s", queryErrors.ErrIndexNotFound, index, t.Name)
}

func keyNames(pk KeyAttribute, sk *KeyAttribute) KeyNames {
	names := KeyNames{PartitionKey: pk.Attribute}
	if sk != nil {
		names.SortKey = sk.Attribute
	}
	return names
}
