package main

import (
	"context"
	"fmt"

	"github.com/skeema/dbnav/internal/ddl"
	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/dbnav/internal/sqlsearch"
	"github.com/skeema/mybase"
)

func init() {
	summary := "Generate DDL to drop a trigger"
	desc := `Resolves a trigger name in the same manner as the resolve command, and prints the
DROP TRIGGER statement for it. The statement is only printed, never executed.`

	cmd := mybase.NewCommand("drop-trigger", summary, desc, DropTriggerHandler)
	addSessionOptions(cmd)
	cmd.AddArg("name", "", true)
	CommandSuite.AddSubCommand(cmd)
}

// DropTriggerHandler is the handler method for `dbnav drop-trigger`
func DropTriggerHandler(cfg *mybase.Config) error {
	ctx := context.Background()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	names, err := s.parseName(cfg.Get("name"))
	if err != nil {
		return err
	}
	obj := sqlsearch.FindObjectByFQN(lookupContext(ctx, cfg), s.root, s.ds.DefaultContext(), names, sqlsearch.Options{})
	if obj == nil || obj.ObjectType() != meta.ObjectTypeTrigger {
		return NewExitValue(CodeNotFound, "No trigger found matching %s", cfg.Get("name"))
	}
	action, err := ddl.DropTrigger(s.dialect, obj)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "-- %s\n%s;\n", action.Title, action.SQL)
	return nil
}
