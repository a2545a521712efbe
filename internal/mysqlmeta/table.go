package mysqlmeta

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/ddl"
	"github.com/skeema/dbnav/internal/meta"
)

// Table is a table or view. Its columns are not part of the catalog tree, but
// can be read on demand with Columns.
type Table struct {
	*catalog.Object
	ds *DataSource

	m       sync.Mutex
	columns []*ddl.Column
}

func newTable(ds *DataSource, db *catalog.Container, name string, typ meta.ObjectType) *Table {
	return &Table{
		Object: catalog.NewObject(name, typ, db),
		ds:     ds,
	}
}

// Database returns the name of the database containing the table.
func (t *Table) Database() string {
	return t.Parent().Name()
}

// Columns returns the table's columns, ordered by position. Columns are cached
// after the first successful call; in cache-only mode an uncached table
// returns no columns.
func (t *Table) Columns(ctx context.Context) ([]*ddl.Column, error) {
	t.m.Lock()
	defer t.m.Unlock()
	if t.columns != nil || meta.IsCacheOnly(ctx) {
		return t.columns, nil
	}
	pool, err := t.ds.instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var rawColumns []struct {
		Name           string         `db:"column_name"`
		Position       int            `db:"ordinal_position"`
		Default        sql.NullString `db:"column_default"`
		Nullable       string         `db:"is_nullable"`
		DataType       string         `db:"data_type"`
		Type           string         `db:"column_type"`
		CharSet        sql.NullString `db:"character_set_name"`
		Collation      sql.NullString `db:"collation_name"`
		Extra          string         `db:"extra"`
		GenerationExpr sql.NullString `db:"generation_expression"`
		Comment        string         `db:"column_comment"`
	}
	query := `
		SELECT   column_name AS column_name, ordinal_position AS ordinal_position,
		         column_default AS column_default, is_nullable AS is_nullable,
		         data_type AS data_type, column_type AS column_type,
		         character_set_name AS character_set_name, collation_name AS collation_name,
		         extra AS extra, %s AS generation_expression,
		         column_comment AS column_comment
		FROM     information_schema.columns
		WHERE    table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`
	err = pool.SelectContext(ctx, &rawColumns, fmt.Sprintf(query, "generation_expression"), t.Database(), t.Name())
	if IsUnknownColumnError(err) {
		// Servers predating generated columns lack generation_expression
		err = pool.SelectContext(ctx, &rawColumns, fmt.Sprintf(query, "NULL"), t.Database(), t.Name())
	}
	if err != nil {
		return nil, err
	}
	columns := make([]*ddl.Column, len(rawColumns))
	for n, rawColumn := range rawColumns {
		col := &ddl.Column{
			Name:           rawColumn.Name,
			TypeInDB:       rawColumn.Type,
			DataType:       rawColumn.DataType,
			Nullable:       strings.EqualFold(rawColumn.Nullable, "YES"),
			ExtraInfo:      normalizeExtra(rawColumn.Extra),
			GenerationExpr: rawColumn.GenerationExpr.String,
			Comment:        rawColumn.Comment,
			Position:       rawColumn.Position,
		}
		col.AutoIncrement = strings.Contains(strings.ToLower(col.ExtraInfo), "auto_increment")
		if col.IsString() {
			col.CharSet = rawColumn.CharSet.String
			col.Collation = rawColumn.Collation.String
		}
		col.Default = defaultExpression(t.ds.dialect, col, rawColumn.Default, rawColumn.Extra)
		columns[n] = col
	}
	t.columns = columns
	return columns, nil
}

// Column returns the named column, or nil if the table has no such column.
// Column names are always case-insensitive in MySQL.
func (t *Table) Column(ctx context.Context, name string) (*ddl.Column, error) {
	columns, err := t.Columns(ctx)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if strings.EqualFold(col.Name, name) {
			return col, nil
		}
	}
	return nil, nil
}

// normalizeExtra strips the DEFAULT_GENERATED marker which MySQL 8 adds to
// columns with expression defaults; it is not valid in a column declaration.
func normalizeExtra(extra string) string {
	extra = strings.ReplaceAll(extra, "DEFAULT_GENERATED", "")
	return strings.Join(strings.Fields(extra), " ")
}

// defaultExpression converts an information_schema.columns.column_default
// value into an expression usable in a DEFAULT clause. MariaDB already quotes
// string defaults there, while MySQL does not.
func defaultExpression(d *meta.Dialect, col *ddl.Column, raw sql.NullString, rawExtra string) string {
	if !raw.Valid || raw.String == "NULL" {
		if col.Nullable && col.GenerationExpr == "" {
			return "NULL"
		}
		return ""
	}
	value := raw.String
	if strings.HasPrefix(value, "'") || strings.HasPrefix(strings.ToUpper(value), "CURRENT_TIMESTAMP") {
		return value
	} else if strings.Contains(rawExtra, "DEFAULT_GENERATED") {
		return "(" + value + ")"
	} else if _, err := strconv.ParseFloat(value, 64); err == nil && !col.IsString() {
		return value
	}
	return d.QuoteString(value)
}
