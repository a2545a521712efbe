// Package ddl generates DDL statements for editing columns and dropping
// triggers of objects found in a catalog.
package ddl

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/meta"
)

// Column represents a single column of a table.
type Column struct {
	Name           string `json:"name"`
	TypeInDB       string `json:"type"`     // full type, e.g. "varchar(40)" or "int unsigned"
	DataType       string `json:"dataType"` // base type only, e.g. "varchar"
	Nullable       bool   `json:"nullable,omitempty"`
	AutoIncrement  bool   `json:"autoIncrement,omitempty"`
	Default        string `json:"default,omitempty"` // Stored as an expression, i.e. quote-wrapped if string
	ExtraInfo      string `json:"extra,omitempty"`   // information_schema.columns.extra
	GenerationExpr string `json:"generationExpression,omitempty"`
	CharSet        string `json:"charSet,omitempty"`   // Only populated if textual type
	Collation      string `json:"collation,omitempty"` // Only populated if textual type
	Comment        string `json:"comment,omitempty"`
	Position       int    `json:"position"` // 1-based ordinal position within the table
}

// extraVirtualGenerated is the information_schema.columns.extra value of a
// virtual generated column.
const extraVirtualGenerated = "VIRTUAL GENERATED"

var stringTypes = map[string]bool{
	"char":       true,
	"varchar":    true,
	"tinytext":   true,
	"text":       true,
	"mediumtext": true,
	"longtext":   true,
	"enum":       true,
	"set":        true,
}

// IsString returns true if the column has a textual type, and may therefore
// carry a character set and collation.
func (c *Column) IsString() bool {
	return stringTypes[strings.ToLower(c.DataType)]
}

// Declaration returns this column's declaration clause, for use as part of an
// ADD COLUMN, MODIFY COLUMN or CHANGE clause.
func (c *Column) Declaration(d *meta.Dialect) string {
	var charSet, collation, defaultValue, extra, nullability, autoIncrement, comment string
	if c.IsString() && c.CharSet != "" {
		charSet = " CHARACTER SET " + c.CharSet
	}
	if c.IsString() && c.Collation != "" {
		collation = " COLLATE " + c.Collation
	}
	if c.Default != "" {
		defaultValue = " DEFAULT " + c.Default
	}
	if c.ExtraInfo != "" {
		if strings.EqualFold(c.ExtraInfo, extraVirtualGenerated) {
			if c.GenerationExpr != "" {
				extra = fmt.Sprintf(" GENERATED ALWAYS AS (%s) VIRTUAL", c.GenerationExpr)
			} else {
				log.Debugf("No generation expression found for virtual column %s", c.Name)
			}
		} else {
			extra = " " + c.ExtraInfo
		}
	}
	if !c.Nullable {
		nullability = " NOT NULL"
	}
	if c.AutoIncrement && !strings.Contains(strings.ToLower(c.ExtraInfo), "auto_increment") {
		autoIncrement = " AUTO_INCREMENT"
	}
	if c.Comment != "" {
		comment = " COMMENT " + d.QuoteString(c.Comment)
	}
	clauses := []string{
		d.Quote(c.Name), " ", c.TypeInDB, charSet, collation, defaultValue, extra, nullability, autoIncrement, comment,
	}
	return strings.Join(clauses, "")
}

// MinOrdinalPosition returns the lowest position a column may be moved to.
func MinOrdinalPosition() int {
	return 1
}

// MaxOrdinalPosition returns the highest position a column may be moved to,
// given all columns of its table.
func MaxOrdinalPosition(columns []*Column) int {
	return len(columns)
}

// MoveColumn moves col to newPosition, renumbering the Position of every
// column in columns accordingly. columns must be the full column list of
// col's table, sorted by Position. The reordered list is returned.
func MoveColumn(columns []*Column, col *Column, newPosition int) ([]*Column, error) {
	if newPosition < MinOrdinalPosition() || newPosition > MaxOrdinalPosition(columns) {
		return nil, fmt.Errorf("Position %d for column %s is out of range %d to %d", newPosition, col.Name, MinOrdinalPosition(), MaxOrdinalPosition(columns))
	}
	reordered := make([]*Column, 0, len(columns))
	for _, other := range columns {
		if other != col {
			reordered = append(reordered, other)
		}
	}
	if len(reordered) == len(columns) {
		return nil, fmt.Errorf("Column %s is not among the supplied columns", col.Name)
	}
	reordered = append(reordered[:newPosition-1], append([]*Column{col}, reordered[newPosition-1:]...)...)
	for n, other := range reordered {
		other.Position = n + 1
	}
	return reordered, nil
}

// PreviousColumn returns the column directly before col by Position, or nil if
// col is first.
func PreviousColumn(columns []*Column, col *Column) *Column {
	for _, other := range columns {
		if other.Position == col.Position-1 {
			return other
		}
	}
	return nil
}
