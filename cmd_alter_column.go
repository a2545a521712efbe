package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/skeema/dbnav/internal/ddl"
	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/dbnav/internal/mysqlmeta"
	"github.com/skeema/dbnav/internal/sqlsearch"
	"github.com/skeema/mybase"
)

func init() {
	summary := "Generate DDL to change a column"
	desc := `Resolves a table name in the same manner as the resolve command, and prints the
ALTER TABLE statement for changing one of its columns. The statement is only
printed, never executed. Only the mysql driver supports this command.

With no options, a MODIFY COLUMN statement restating the column's current
definition is printed. Use --rename to rename the column, or --first, --after
or --position to move it; these print a CHANGE statement instead. --drop prints
a DROP COLUMN statement.`

	cmd := mybase.NewCommand("alter-column", summary, desc, AlterColumnHandler)
	cmd.AddOption(mybase.StringOption("rename", 0, "", "New name for the column"))
	cmd.AddOption(mybase.BoolOption("first", 0, false, "Move the column to the first position"))
	cmd.AddOption(mybase.StringOption("after", 0, "", "Move the column after the named column"))
	cmd.AddOption(mybase.StringOption("position", 0, "", "Move the column to the supplied ordinal position"))
	cmd.AddOption(mybase.BoolOption("drop", 0, false, "Drop the column"))
	addSessionOptions(cmd)
	cmd.AddArg("table", "", true)
	cmd.AddArg("column", "", true)
	CommandSuite.AddSubCommand(cmd)
}

// AlterColumnHandler is the handler method for `dbnav alter-column`
func AlterColumnHandler(cfg *mybase.Config) error {
	ctx := context.Background()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	names, err := s.parseName(cfg.Get("table"))
	if err != nil {
		return err
	}
	ctx = lookupContext(ctx, cfg)
	obj := sqlsearch.FindObjectByFQN(ctx, s.root, s.ds.DefaultContext(), names, sqlsearch.Options{})
	if obj == nil {
		return NewExitValue(CodeNotFound, "No table found matching %s", cfg.Get("table"))
	}
	table, ok := obj.(*mysqlmeta.Table)
	if !ok || table.ObjectType() != meta.ObjectTypeTable {
		return NewExitValue(CodeBadInput, "%s is not a table", s.describe(obj))
	}
	columns, err := table.Columns(ctx)
	if err != nil {
		return err
	}
	// Work on copies, since moving a column renumbers positions
	columns = cloneColumns(columns)
	col := findColumn(columns, cfg.Get("column"))
	if col == nil {
		return NewExitValue(CodeNotFound, "Table %s has no column %s", table.Name(), cfg.Get("column"))
	}

	clause, err := alterColumnClause(cfg, columns, col)
	if err != nil {
		return err
	}
	action := ddl.AlterTable(s.dialect, table, clause)
	fmt.Fprintf(stdout, "-- %s\n%s;\n", action.Title, action.SQL)
	return nil
}

// alterColumnClause returns the clause requested by cfg's options for col.
// columns must hold every column of col's table. At most one kind of change
// may be requested.
func alterColumnClause(cfg *mybase.Config, columns []*ddl.Column, col *ddl.Column) (ddl.TableAlterClause, error) {
	var changes int
	for _, name := range []string{"rename", "first", "after", "position", "drop"} {
		if cfg.Changed(name) {
			changes++
		}
	}
	if changes > 1 {
		return nil, NewExitValue(CodeBadUsage, "Options rename, first, after, position and drop are mutually exclusive")
	}

	var newPosition int
	switch {
	case cfg.GetBool("drop"):
		return ddl.DropColumn{Column: col}, nil
	case cfg.Changed("rename"):
		oldName := col.Name
		col.Name = cfg.Get("rename")
		return ddl.RenameColumn{OldName: oldName, Column: col}, nil
	case cfg.GetBool("first"):
		newPosition = ddl.MinOrdinalPosition()
	case cfg.Changed("after"):
		after := findColumn(columns, cfg.Get("after"))
		if after == nil {
			return nil, NewExitValue(CodeBadInput, "Column %s does not exist", cfg.Get("after"))
		} else if after == col {
			return nil, NewExitValue(CodeBadInput, "Column %s cannot be moved after itself", col.Name)
		}
		newPosition = after.Position + 1
		if after.Position > col.Position {
			newPosition--
		}
	case cfg.Changed("position"):
		var err error
		if newPosition, err = cfg.GetInt("position"); err != nil {
			return nil, NewExitValue(CodeBadConfig, "Option position must be an integer")
		}
	default:
		return ddl.ModifyColumn{Column: col}, nil
	}
	reordered, err := ddl.MoveColumn(columns, col, newPosition)
	if err != nil {
		return nil, NewExitValue(CodeBadInput, "%s", err)
	}
	return ddl.ReorderColumn{Column: col, Columns: reordered}, nil
}

func cloneColumns(columns []*ddl.Column) []*ddl.Column {
	clones := make([]*ddl.Column, len(columns))
	for n, col := range columns {
		clone := *col
		clones[n] = &clone
	}
	return clones
}

// findColumn returns the column with the supplied name, compared
// case-insensitively, or nil if there is none.
func findColumn(columns []*ddl.Column, name string) *ddl.Column {
	for _, col := range columns {
		if strings.EqualFold(col.Name, name) {
			return col
		}
	}
	return nil
}
