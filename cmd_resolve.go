package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/sqlsearch"
	"github.com/skeema/mybase"
)

func init() {
	summary := "Resolve a possibly-qualified object name"
	desc := `Resolves a table, view, routine or other object name to a single object, the way
a SQL editor would when the name is typed into a query. The name may be
qualified with its database or schema, and any part may be quoted using the
driver's identifier quotes.

Unqualified names are first looked up in the default database or schema, which
is set by the schema option. Names are first matched exactly, then again after
folding unquoted parts according to the server's identifier case rules. As a
last resort, a single-part name may be matched by prefix, unless
--skip-assistant is used.

The object type and fully-qualified name are printed. An exit code of 0 will
be returned if an object was found; 1 if no object was found; or 2+ if any
errors occurred.`

	cmd := mybase.NewCommand("resolve", summary, desc, ResolveHandler)
	cmd.AddOption(mybase.BoolOption("assistant", 0, true, "Fall back to matching single-part names by prefix"))
	cmd.AddOption(mybase.BoolOption("global-search", 0, false, "Permit prefix matching outside of the default database or schema"))
	addSessionOptions(cmd)
	cmd.AddArg("name", "", true)
	CommandSuite.AddSubCommand(cmd)
}

// ResolveHandler is the handler method for `dbnav resolve`
func ResolveHandler(cfg *mybase.Config) error {
	ctx := context.Background()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	input := cfg.Get("name")
	names, err := s.parseName(input)
	if err != nil {
		return err
	}
	opts := sqlsearch.Options{
		UseAssistant: cfg.GetBool("assistant"),
		GlobalSearch: cfg.GetBool("global-search"),
	}
	log.WithFields(log.Fields{
		"assistant":  opts.UseAssistant,
		"cache-only": cfg.GetBool("cache-only"),
	}).Debugf("Resolving %s", input)

	obj := sqlsearch.FindObjectByFQN(lookupContext(ctx, cfg), s.root, s.ds.DefaultContext(), names, opts)
	if obj == nil {
		return NewExitValue(CodeNotFound, "No object found matching %s", input)
	}
	fmt.Fprintln(stdout, s.describe(obj))
	return nil
}
