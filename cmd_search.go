package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/mybase"
)

func init() {
	summary := "Find objects by name prefix or mask"
	desc := `Searches the catalog for objects whose names match the supplied mask. A mask
without any wildcard is treated as a prefix; * or % match any number of
characters, and ? or _ match a single character.

Unless --global-search is used, only the default database or schema (set by the
schema option) is searched. Matching is case-insensitive unless
--case-sensitive is used.

An exit code of 0 will be returned if any objects were found; 1 if none were
found; or 2+ if any errors occurred.`

	cmd := mybase.NewCommand("search", summary, desc, SearchHandler)
	cmd.AddOption(mybase.StringOption("type", 't', "", "Comma-separated object types to search (default all searchable types)"))
	cmd.AddOption(mybase.StringOption("max-results", 0, "100", "Maximum number of objects to return; 0 for no limit"))
	cmd.AddOption(mybase.BoolOption("case-sensitive", 0, false, "Match names case-sensitively"))
	cmd.AddOption(mybase.BoolOption("global-search", 0, false, "Search all databases or schemas"))
	addSessionOptions(cmd)
	cmd.AddArg("mask", "", true)
	CommandSuite.AddSubCommand(cmd)
}

// SearchHandler is the handler method for `dbnav search`
func SearchHandler(cfg *mybase.Config) error {
	ctx := context.Background()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	assistant, ok := s.ds.(meta.StructureAssistant)
	if !ok {
		return errors.New("Searching is not supported by this driver")
	}
	maxResults, err := cfg.GetInt("max-results")
	if err != nil || maxResults < 0 {
		return NewExitValue(CodeBadConfig, "Option max-results must be a non-negative integer")
	}
	objectTypes, err := searchTypes(cfg, assistant.AutoCompleteObjectTypes())
	if err != nil {
		return err
	}
	params := meta.SearchParams{
		ObjectTypes:   objectTypes,
		Mask:          cfg.Get("mask"),
		CaseSensitive: cfg.GetBool("case-sensitive"),
		MaxResults:    maxResults,
		GlobalSearch:  cfg.GetBool("global-search"),
	}
	ctx = lookupContext(ctx, cfg)
	refs, err := assistant.FindObjectsByMask(ctx, s.ds.DefaultContext(), params)
	if err != nil {
		return err
	}
	var found int
	for _, ref := range refs {
		obj, err := ref.Resolve(ctx)
		if err != nil {
			return err
		} else if obj == nil {
			log.Debugf("Skipping %s %s: no longer exists", ref.ObjectType(), ref.Name())
			continue
		}
		fmt.Fprintln(stdout, s.describe(obj))
		found++
	}
	if found == 0 {
		return NewExitValue(CodeNotFound, "No objects found matching %s", params.Mask)
	}
	return nil
}

// searchTypes returns the object types requested by the type option, which
// must all be among supported. If the option is blank, supported is returned.
func searchTypes(cfg *mybase.Config, supported []meta.ObjectType) ([]meta.ObjectType, error) {
	requested := cfg.GetSlice("type", ',', true)
	if len(requested) == 0 {
		return supported, nil
	}
	types := make([]meta.ObjectType, 0, len(requested))
	for _, name := range requested {
		typ := meta.ObjectType(name)
		if !slices.Contains(supported, typ) {
			return nil, NewExitValue(CodeBadConfig, "Option type: object type %q cannot be searched by this driver", name)
		}
		types = append(types, typ)
	}
	return types, nil
}
