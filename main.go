package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/dbnav/internal/util"
	"github.com/skeema/mybase"
)

const version = "0.1.0"

const rootDesc = `dbnav resolves SQL object names the way a query editor does: a possibly-
qualified, possibly-quoted name is looked up relative to the session's default
database or schema, retried with the server's identifier case rules, and
finally matched by name prefix.

It supports MySQL, MariaDB and Exasol. Connection options may be supplied on
the command line or in option files: /etc/dbnav, /usr/local/etc/dbnav, and
~/.dbnav, plus ~/.my.cnf for the mysql driver. Within dbnav option files, a
section named after the driver ([mysql] or [exasol]) overrides sectionless
options.`

// CommandSuite is the root command. It is global so that subcommands can be
// added to it via init() functions in each subcommand's source file.
var CommandSuite = mybase.NewCommandSuite("dbnav", version, rootDesc)

// stdout receives command output. Tests may replace it.
var stdout io.Writer = os.Stdout

func main() {
	defer panicHandler()
	util.AddGlobalOptions(CommandSuite)
	cfg, err := mybase.ParseCLI(CommandSuite, os.Args)
	if err != nil {
		Exit(NewExitValue(CodeBadUsage, "%s", err))
	}
	util.AddGlobalConfigFiles(cfg)
	if err := util.ProcessSpecialGlobalOptions(cfg); err != nil {
		Exit(NewExitValue(CodeBadConfig, "%s", err))
	}
	Exit(cfg.HandleCommand())
}

// sqlDialecter is satisfied by every data source in dbnav, exposing the
// concrete dialect needed for parsing names.
type sqlDialecter interface {
	SQLDialect() *meta.Dialect
}

// preloader is satisfied by data sources which can load their entire catalog
// up front.
type preloader interface {
	Preload(ctx context.Context, concurrency int) error
}

// session bundles what a command needs to resolve names on a data source.
type session struct {
	ds      meta.DataSource
	root    meta.Container
	dialect *meta.Dialect
}

// openSession obtains the data source described by cfg, optionally loading its
// whole catalog first.
func openSession(ctx context.Context, cfg *mybase.Config) (*session, error) {
	ds, err := util.DataSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &session{ds: ds}
	if d, ok := ds.(sqlDialecter); ok {
		s.dialect = d.SQLDialect()
	} else {
		return nil, fmt.Errorf("Data source %T does not expose a SQL dialect", ds)
	}
	if root, ok := ds.(meta.Container); ok {
		s.root = root
	}
	if cfg.GetBool("preload") {
		p, ok := ds.(preloader)
		if !ok {
			return nil, errors.New("Option preload is not supported by this driver")
		}
		if err := p.Preload(ctx, cfg.GetIntOrDefault("concurrency")); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// addSessionOptions adds the options used by openSession and lookupContext to
// cmd.
func addSessionOptions(cmd *mybase.Command) {
	cmd.AddOption(mybase.BoolOption("preload", 0, false, "Load the entire catalog before resolving names"))
	cmd.AddOption(mybase.StringOption("concurrency", 0, "5", "Max concurrent catalog loads with --preload"))
	cmd.AddOption(mybase.BoolOption("cache-only", 0, false, "Only consult metadata that has already been loaded"))
}

// lookupContext returns ctx, or a cache-only child of it if requested by cfg.
func lookupContext(ctx context.Context, cfg *mybase.Config) context.Context {
	if cfg.GetBool("cache-only") {
		return meta.WithCacheOnly(ctx)
	}
	return ctx
}

// parseName splits the supplied name into its parts using the session's
// dialect.
func (s *session) parseName(name string) ([]string, error) {
	names, err := meta.ParseQualifiedName(s.dialect, name)
	if err != nil {
		return nil, NewExitValue(CodeBadInput, "%s", err)
	} else if len(names) == 0 {
		return nil, NewExitValue(CodeBadInput, "A non-blank name is required")
	}
	return names, nil
}

// describe returns the object type and fully-qualified name of obj.
func (s *session) describe(obj meta.Object) string {
	return fmt.Sprintf("%s %s", obj.ObjectType(), meta.FullyQualifiedName(s.dialect, obj))
}
