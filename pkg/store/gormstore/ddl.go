package gormstore

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

// createTable renders the CREATE TABLE statement for m. Relation objects and
// list fields have no column.
func createTable(dialector gorm.Dialector, table string, m *metadata.Model) (string, error) {
	postgresDialect := dialector.Name() == DriverPostgres

	var columns []string
	for _, field := range m.Fields() {
		if field.IsDataModel || field.IsArray {
			continue
		}
		column := quote(dialector, field.Name) + " " + columnType(field, postgresDialect)
		if !field.IsID && !field.IsOptional {
			column += " NOT NULL"
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("modelform/gormstore: model %s has no columns", m.Name())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(dialector, table), strings.Join(columns, ", ")), nil
}

func columnType(field metadata.Field, postgresDialect bool) string {
	if field.IsID {
		switch {
		case field.Type == metadata.FieldTypeInt || field.Type == metadata.FieldTypeBigInt:
			if postgresDialect {
				return "BIGSERIAL PRIMARY KEY"
			}
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		default:
			return scalarType(field.Type, postgresDialect) + " PRIMARY KEY"
		}
	}
	return scalarType(field.Type, postgresDialect)
}

func scalarType(t metadata.FieldType, postgresDialect bool) string {
	switch t {
	case metadata.FieldTypeInt, metadata.FieldTypeBigInt:
		return "BIGINT"
	case metadata.FieldTypeFloat:
		if postgresDialect {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case metadata.FieldTypeDecimal:
		return "NUMERIC"
	case metadata.FieldTypeBoolean:
		return "BOOLEAN"
	case metadata.FieldTypeDateTime:
		return "TIMESTAMP"
	case metadata.FieldTypeBytes:
		if postgresDialect {
			return "BYTEA"
		}
		return "BLOB"
	default:
		return "TEXT"
	}
}

func quote(dialector gorm.Dialector, name string) string {
	var b strings.Builder
	dialector.QuoteTo(&b, name)
	return b.String()
}
