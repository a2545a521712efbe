package exasolmeta

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/skeema/dbnav/internal/catalog"
	"github.com/skeema/dbnav/internal/meta"
	"github.com/skeema/dbnav/internal/sqlsearch"
)

func TestConfig(t *testing.T) {
	cfg := Config{Host: "exa.example.com", User: "sys", Password: "exasol", Schema: "SALES"}
	if cfg.String() != "exa.example.com:8563" {
		t.Errorf("Expected default port to be used in String(), instead found %q", cfg.String())
	}
	cfg.Port = 9563
	if cfg.String() != "exa.example.com:9563" {
		t.Errorf("Unexpected String(): %q", cfg.String())
	}
	dsn := cfg.DSN()
	if !strings.HasPrefix(dsn, "exa:exa.example.com:9563") {
		t.Errorf("Unexpected DSN %q", dsn)
	}
	if !strings.Contains(dsn, "SALES") {
		t.Errorf("Expected DSN %q to include schema", dsn)
	}
}

func TestMaskQuery(t *testing.T) {
	params := meta.SearchParams{
		ObjectTypes: []meta.ObjectType{meta.ObjectTypeView, meta.ObjectTypeTable, meta.ObjectTypeTrigger},
		Mask:        "ord",
		MaxResults:  2,
	}
	query, binds := maskQuery(params, "SALES")
	expected := "SELECT ROOT_NAME, OBJECT_NAME, OBJECT_TYPE FROM EXA_ALL_OBJECTS WHERE ROOT_TYPE = 'SCHEMA' AND OBJECT_TYPE IN ('TABLE', 'VIEW') AND UPPER(OBJECT_NAME) LIKE UPPER(?) AND ROOT_NAME = ? ORDER BY ROOT_NAME, OBJECT_NAME LIMIT 2"
	if query != expected {
		t.Errorf("maskQuery returned unexpected query:\n%s\nExpected:\n%s", query, expected)
	}
	if len(binds) != 2 || binds[0] != "ord%" || binds[1] != "SALES" {
		t.Errorf("maskQuery returned unexpected binds %v", binds)
	}

	params.CaseSensitive = true
	params.MaxResults = 0
	query, binds = maskQuery(params, "")
	if !strings.Contains(query, " AND OBJECT_NAME LIKE ?") || strings.Contains(query, "ROOT_NAME = ?") || strings.Contains(query, "LIMIT") {
		t.Errorf("maskQuery returned unexpected query: %s", query)
	}
	if len(binds) != 1 {
		t.Errorf("Expected 1 bind, instead found %v", binds)
	}

	params.ObjectTypes = []meta.ObjectType{meta.ObjectTypeTrigger}
	if query, binds = maskQuery(params, ""); query != "" || binds != nil {
		t.Errorf("Expected no query for unsearchable types, instead found %q %v", query, binds)
	}
}

func TestSearchSchema(t *testing.T) {
	root := catalog.NewRoot("exa", nil)
	schema := catalog.NewContainer("SALES", meta.ObjectTypeSchema, root, nil)
	table := catalog.NewObject("ORDERS", meta.ObjectTypeTable, schema)
	if name := searchSchema(table); name != "SALES" {
		t.Errorf("Expected SALES, instead found %q", name)
	}
	if name := searchSchema(root); name != "" {
		t.Errorf("Expected blank schema, instead found %q", name)
	}
	if name := searchSchema(nil); name != "" {
		t.Errorf("Expected blank schema, instead found %q", name)
	}
}

func TestExecutionContextCacheOnly(t *testing.T) {
	ds := newDataSource(Config{Host: "exa.example.com", Schema: "SALES", DisableExtraMetadataReads: true}, nil)
	if ds.ExtraMetadataReadEnabled() {
		t.Error("Expected extra metadata reads to be disabled")
	}
	if ds.SQLDialect().ID != "exasol" || ds.Dialect().Name() != "Exasol" {
		t.Errorf("Unexpected dialect %s (%s)", ds.Dialect().Name(), ds.SQLDialect().ID)
	}
	ctx := meta.WithCacheOnly(context.Background())
	ec := ds.DefaultContext().(*ExecutionContext)
	if schema, err := ec.CurrentSchema(ctx); schema != "SALES" || err != nil {
		t.Errorf("Expected SALES, nil; instead found %q, %v", schema, err)
	}
	// Nothing is cached, so no defaults can be found without reading metadata
	if defaults, err := ec.ContextDefaults(ctx); defaults != nil || err != nil {
		t.Errorf("Expected nil, nil; instead found %v, %v", defaults, err)
	}
	if refs, err := ds.FindObjectsByMask(ctx, ec, meta.SearchParams{ObjectTypes: ds.AutoCompleteObjectTypes(), Mask: "ORD"}); refs != nil || err != nil {
		t.Errorf("Expected nil, nil; instead found %v, %v", refs, err)
	}
	if obj := sqlsearch.FindObjectByFQN(ctx, ds, ec, []string{"ORDERS"}, sqlsearch.Options{UseAssistant: true}); obj != nil {
		t.Errorf("Expected nil object, instead found %v", obj)
	}
}

// TestIntegration runs against a disposable Exasol database configured by the
// DBNAV_TEST_EXASOL_HOST, DBNAV_TEST_EXASOL_PORT, DBNAV_TEST_EXASOL_USER and
// DBNAV_TEST_EXASOL_PASSWORD env vars. It is skipped if no host is set.
func TestIntegration(t *testing.T) {
	host := os.Getenv("DBNAV_TEST_EXASOL_HOST")
	if host == "" {
		t.Skip("DBNAV_TEST_EXASOL_HOST env var is not set, so Exasol integration tests will be skipped.")
	}
	port, _ := strconv.Atoi(os.Getenv("DBNAV_TEST_EXASOL_PORT"))
	cfg := Config{
		Host:     host,
		Port:     port,
		User:     os.Getenv("DBNAV_TEST_EXASOL_USER"),
		Password: os.Getenv("DBNAV_TEST_EXASOL_PASSWORD"),
	}
	ctx := context.Background()
	ds, err := NewDataSource(ctx, cfg)
	if err != nil {
		t.Fatalf("Unable to connect: %v", err)
	}
	defer ds.Close()

	setup := []string{
		`DROP SCHEMA IF EXISTS DBNAV_SALES CASCADE`,
		`CREATE SCHEMA DBNAV_SALES`,
		`CREATE TABLE DBNAV_SALES.ORDERS (ID DECIMAL(18,0), TOTAL DECIMAL(10,2))`,
		`CREATE TABLE DBNAV_SALES."MixedCase" (ID DECIMAL(18,0))`,
		`CREATE VIEW DBNAV_SALES.BIG_ORDERS AS SELECT * FROM DBNAV_SALES.ORDERS WHERE TOTAL > 100`,
	}
	for _, stmt := range setup {
		if _, err := ds.DB().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Unable to run %q: %v", stmt, err)
		}
	}
	defer ds.DB().ExecContext(ctx, `DROP SCHEMA IF EXISTS DBNAV_SALES CASCADE`)

	ec := ds.DefaultContext().(*ExecutionContext)
	ec.UseSchema("DBNAV_SALES")
	cases := map[string]string{
		"orders":                  "table DBNAV_SALES.ORDERS",
		"dbnav_sales.big_orders":  "view DBNAV_SALES.BIG_ORDERS",
		`"MixedCase"`:             "table DBNAV_SALES.MixedCase",
		`DBNAV_SALES."MixedCase"`: "table DBNAV_SALES.MixedCase",
		"mixedcase":               "",
		"DBNAV_SALES":             "schema DBNAV_SALES",
	}
	for input, expected := range cases {
		parts, err := meta.ParseQualifiedName(ds.SQLDialect(), input)
		if err != nil {
			t.Errorf("Unexpected error parsing %q: %v", input, err)
			continue
		}
		var actual string
		if obj := sqlsearch.FindObjectByFQN(ctx, ds, ec, parts, sqlsearch.Options{}); obj != nil {
			actual = fmt.Sprintf("%s %s", obj.ObjectType(), strings.ReplaceAll(meta.FullyQualifiedName(ds.Dialect(), obj), `"`, ""))
		}
		if actual != expected {
			t.Errorf("Resolving %q: expected %q, instead found %q", input, expected, actual)
		}
	}

	refs, err := ds.FindObjectsByMask(ctx, ec, meta.SearchParams{ObjectTypes: ds.AutoCompleteObjectTypes(), Mask: "big"})
	if err != nil || len(refs) != 1 || refs[0].Name() != "BIG_ORDERS" || refs[0].ObjectType() != meta.ObjectTypeView {
		t.Errorf("Unexpected result from FindObjectsByMask: %v, %v", refs, err)
	}
}
