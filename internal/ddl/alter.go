package ddl

import (
	"fmt"

	"github.com/skeema/dbnav/internal/meta"
)

// Action is a single DDL statement along with a short human-readable title.
type Action struct {
	Title string
	SQL   string
}

func (a Action) String() string {
	return a.SQL
}

// TableAlterClause represents one clause of an ALTER TABLE statement.
type TableAlterClause interface {
	Clause(d *meta.Dialect) string
	Title() string
}

///// AddColumn ////////////////////////////////////////////////////////////////

// AddColumn represents a new column. It satisfies the TableAlterClause
// interface.
type AddColumn struct {
	Column        *Column
	PositionFirst bool
	PositionAfter *Column
}

// Clause returns an ADD COLUMN clause of an ALTER TABLE statement.
func (ac AddColumn) Clause(d *meta.Dialect) string {
	return "ADD COLUMN " + ac.Column.Declaration(d) + positionClause(d, ac.PositionFirst, ac.PositionAfter)
}

// Title returns a short description of the clause.
func (ac AddColumn) Title() string { return "Add column" }

///// ModifyColumn /////////////////////////////////////////////////////////////

// ModifyColumn represents a change to an existing column's declaration,
// keeping its name and position. It satisfies the TableAlterClause interface.
type ModifyColumn struct {
	Column *Column
}

// Clause returns a MODIFY COLUMN clause of an ALTER TABLE statement.
func (mc ModifyColumn) Clause(d *meta.Dialect) string {
	return "MODIFY COLUMN " + mc.Column.Declaration(d)
}

// Title returns a short description of the clause.
func (mc ModifyColumn) Title() string { return "Modify column" }

///// RenameColumn /////////////////////////////////////////////////////////////

// RenameColumn represents a column whose name changed from OldName to
// Column.Name. It satisfies the TableAlterClause interface.
type RenameColumn struct {
	OldName string
	Column  *Column
}

// Clause returns a CHANGE clause of an ALTER TABLE statement.
func (rc RenameColumn) Clause(d *meta.Dialect) string {
	return "CHANGE " + d.Quote(rc.OldName) + " " + rc.Column.Declaration(d)
}

// Title returns a short description of the clause.
func (rc RenameColumn) Title() string { return "Rename column" }

///// ReorderColumn ////////////////////////////////////////////////////////////

// ReorderColumn represents a column which was moved to its current Position.
// Columns holds every column of the table, already renumbered (see
// MoveColumn). It satisfies the TableAlterClause interface.
type ReorderColumn struct {
	Column  *Column
	Columns []*Column
}

// Clause returns a CHANGE clause with a FIRST or AFTER position.
func (rc ReorderColumn) Clause(d *meta.Dialect) string {
	prev := PreviousColumn(rc.Columns, rc.Column)
	return "CHANGE " + d.Quote(rc.Column.Name) + " " + rc.Column.Declaration(d) + positionClause(d, prev == nil, prev)
}

// Title returns a short description of the clause.
func (rc ReorderColumn) Title() string { return "Reorder column" }

///// DropColumn ///////////////////////////////////////////////////////////////

// DropColumn represents a column being removed. It satisfies the
// TableAlterClause interface.
type DropColumn struct {
	Column *Column
}

// Clause returns a DROP COLUMN clause of an ALTER TABLE statement.
func (dc DropColumn) Clause(d *meta.Dialect) string {
	return fmt.Sprintf("DROP COLUMN %s", d.Quote(dc.Column.Name))
}

// Title returns a short description of the clause.
func (dc DropColumn) Title() string { return "Drop column" }

////////////////////////////////////////////////////////////////////////////////

func positionClause(d *meta.Dialect, first bool, after *Column) string {
	if first {
		return " FIRST"
	} else if after != nil {
		return " AFTER " + d.Quote(after.Name)
	}
	return ""
}

// AlterTable returns an ALTER TABLE action applying clause to table. The table
// name is fully qualified.
func AlterTable(d *meta.Dialect, table meta.Object, clause TableAlterClause) Action {
	return Action{
		Title: clause.Title(),
		SQL:   "ALTER TABLE " + meta.FullyQualifiedName(d, table) + " " + clause.Clause(d),
	}
}

// DropTrigger returns an action dropping trigger, referenced by its fully
// qualified name.
func DropTrigger(d *meta.Dialect, trigger meta.Object) (Action, error) {
	if trigger.ObjectType() != meta.ObjectTypeTrigger {
		return Action{}, fmt.Errorf("%s %s is not a trigger", trigger.ObjectType(), trigger.Name())
	}
	return Action{
		Title: "Drop trigger",
		SQL:   "DROP TRIGGER " + meta.FullyQualifiedName(d, trigger),
	}, nil
}
