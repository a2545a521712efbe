package meta

import (
	"context"
	"slices"
	"testing"
)

type testObject struct {
	name   string
	typ    ObjectType
	parent Object
}

func (obj *testObject) Name() string           { return obj.name }
func (obj *testObject) ObjectType() ObjectType { return obj.typ }
func (obj *testObject) Parent() Object         { return obj.parent }
func (obj *testObject) DataSource() DataSource { return nil }

type testContainer struct {
	testObject
	offline bool
}

func (c *testContainer) Child(ctx context.Context, name string) (Object, error) { return nil, nil }
func (c *testContainer) CacheStructure(ctx context.Context, scope StructScope) error {
	return nil
}
func (c *testContainer) Connected() bool { return !c.offline }

func TestObjectTypeCaps(t *testing.T) {
	if caps := ObjectTypeProc.Caps(); caps != "PROCEDURE" {
		t.Errorf("Expected PROCEDURE, instead found %s", caps)
	}
	key := ObjectKey{Type: ObjectTypeTable, Name: "orders"}
	if str := key.String(); str != "table orders" {
		t.Errorf("Unexpected result from ObjectKey.String(): %s", str)
	}
}

func TestParentContainer(t *testing.T) {
	root := &testContainer{testObject: testObject{name: "root", typ: ObjectTypeDataSource}}
	schema := &testContainer{testObject: testObject{name: "sales", typ: ObjectTypeSchema, parent: root}}
	table := &testObject{name: "orders", typ: ObjectTypeTable, parent: schema}
	column := &testObject{name: "id", typ: ObjectTypeColumn, parent: table}

	if pc := ParentContainer(column); pc != Container(schema) {
		t.Errorf("Expected parent container of column to be schema, instead found %v", pc)
	}
	if pc := ParentContainer(schema); pc != Container(root) {
		t.Errorf("Expected parent container of schema to be root, instead found %v", pc)
	}
	if pc := ParentContainer(root); pc != nil {
		t.Errorf("Expected root to have no parent container, instead found %v", pc)
	}
}

func TestIsConnectedContainer(t *testing.T) {
	c := &testContainer{testObject: testObject{name: "sales", typ: ObjectTypeSchema}}
	if !IsConnectedContainer(c) {
		t.Error("Expected online container to be connected")
	}
	c.offline = true
	if IsConnectedContainer(c) {
		t.Error("Expected offline container to not be connected")
	}
	if !IsConnectedContainer(&testObject{name: "orders", typ: ObjectTypeTable}) {
		t.Error("Expected object without connection state to be treated as connected")
	}
}

func TestFullyQualifiedName(t *testing.T) {
	d := MustLookupDialect("mysql")
	root := &testObject{name: "localhost", typ: ObjectTypeDataSource}
	schema := &testObject{name: "sales", typ: ObjectTypeSchema, parent: root}
	table := &testObject{name: "we`ird", typ: ObjectTypeTable, parent: schema}
	if fqn := FullyQualifiedName(d, table); fqn != "`sales`.`we``ird`" {
		t.Errorf("Unexpected FullyQualifiedName result: %s", fqn)
	}
	if fqn := FullyQualifiedName(d, root); fqn != "" {
		t.Errorf("Expected data source to have blank FullyQualifiedName, instead found %q", fqn)
	}
}

func TestCacheOnly(t *testing.T) {
	ctx := context.Background()
	if IsCacheOnly(ctx) {
		t.Error("Expected background context to not be cache-only")
	}
	ctx = WithCacheOnly(ctx)
	if !IsCacheOnly(ctx) {
		t.Error("Expected WithCacheOnly context to be cache-only")
	}
	child, cancel := context.WithCancel(ctx)
	defer cancel()
	if !IsCacheOnly(child) {
		t.Error("Expected derived context to remain cache-only")
	}
}

func TestLookupDialect(t *testing.T) {
	d, err := LookupDialect("Google_BigQuery")
	if err != nil {
		t.Fatalf("Unexpected error from LookupDialect: %v", err)
	}
	if d.Name() != "BigQuery" || d.StringEscape != '\\' || d.MultiValueInsert != InsertModeGroupRows || d.StoredCase != CaseMixed {
		t.Errorf("Unexpected BigQuery dialect: %+v", d)
	}
	if !slices.Equal(d.Quotes, []QuotePair{{"`", "`"}}) {
		t.Errorf("Unexpected BigQuery quotes: %v", d.Quotes)
	}

	// Returned dialects are copies
	d.Quotes[0] = QuotePair{`"`, `"`}
	if d2 := MustLookupDialect("google_bigquery"); d2.Quotes[0][0] != "`" {
		t.Error("Modifying a looked-up dialect unexpectedly affected the built-in")
	}

	if _, err := LookupDialect("cobol"); err == nil {
		t.Error("Expected error from unknown dialect, but err was nil")
	}
}

func TestDialectQuoting(t *testing.T) {
	mysql := MustLookupDialect("mysql")
	exasol := MustLookupDialect("exasol")
	cases := []struct {
		d        *Dialect
		input    string
		quoted   bool
		unquoted string
	}{
		{mysql, "`Orders`", true, "Orders"},
		{mysql, "Orders", false, "Orders"},
		{mysql, "`we``ird`", true, "we`ird"},
		{mysql, "``", true, ""},
		{mysql, "`", false, "`"},
		{mysql, `"Orders"`, false, `"Orders"`},
		{exasol, `"Orders"`, true, "Orders"},
		{exasol, `"a""b"`, true, `a"b`},
		{exasol, "`Orders`", false, "`Orders`"},
	}
	for _, c := range cases {
		if quoted := c.d.IsQuoted(c.input); quoted != c.quoted {
			t.Errorf("%s IsQuoted(%s): expected %t, found %t", c.d.Name(), c.input, c.quoted, quoted)
		}
		if unquoted := c.d.Unquote(c.input); unquoted != c.unquoted {
			t.Errorf("%s Unquote(%s): expected %s, found %s", c.d.Name(), c.input, c.unquoted, unquoted)
		}
	}

	if quoted := exasol.Quote(`a"b`); quoted != `"a""b"` {
		t.Errorf("Unexpected Quote result: %s", quoted)
	}
	if unquoted := exasol.Unquote(exasol.Quote(`x""y`)); unquoted != `x""y` {
		t.Errorf("Expected Unquote to reverse Quote, instead found %s", unquoted)
	}
}

func TestDialectTransformName(t *testing.T) {
	mysql := MustLookupDialect("mysql")
	if name := mysql.TransformName("Orders"); name != "Orders" {
		t.Errorf("Expected mixed-case dialect to leave name alone, instead found %s", name)
	}
	if name := mysql.WithStoredCase(CaseLower).TransformName("Orders"); name != "orders" {
		t.Errorf("Expected lower-case dialect to fold name, instead found %s", name)
	}
	if mysql.StoredCase != CaseMixed {
		t.Error("WithStoredCase unexpectedly modified its receiver")
	}
	if name := MustLookupDialect("exasol").TransformName("Orders"); name != "ORDERS" {
		t.Errorf("Expected upper-case dialect to fold name, instead found %s", name)
	}
	if CaseUpper.String() != "upper" || CaseMixed.String() != "mixed" {
		t.Error("Unexpected IdentifierCase string values")
	}
}

func TestDialectQuoteString(t *testing.T) {
	if s := MustLookupDialect("mysql").QuoteString(`it's a \ test`); s != `'it''s a \\ test'` {
		t.Errorf("Unexpected mysql QuoteString result: %s", s)
	}
	if s := MustLookupDialect("exasol").QuoteString(`it's a \ test`); s != `'it''s a \ test'` {
		t.Errorf("Unexpected exasol QuoteString result: %s", s)
	}
}

func TestDialectIsExecuteKeyword(t *testing.T) {
	mysql := MustLookupDialect("mysql")
	exasol := MustLookupDialect("exasol")
	cases := []struct {
		d        *Dialect
		stmt     string
		expected bool
	}{
		{mysql, "CALL foo()", true},
		{mysql, "  call\tfoo()", true},
		{mysql, "SELECT 1", false},
		{mysql, "", false},
		{exasol, "execute   script s.foo()", true},
		{exasol, "EXECUTE foo", false},
		{exasol, "CALL foo()", false},
	}
	for _, c := range cases {
		if actual := c.d.IsExecuteKeyword(c.stmt); actual != c.expected {
			t.Errorf("%s IsExecuteKeyword(%q): expected %t, found %t", c.d.Name(), c.stmt, c.expected, actual)
		}
	}
}

func TestParseQualifiedName(t *testing.T) {
	mysql := MustLookupDialect("mysql")
	exasol := MustLookupDialect("exasol")
	cases := []struct {
		d        *Dialect
		input    string
		expected []string
	}{
		{mysql, "orders", []string{"orders"}},
		{mysql, "sales.orders", []string{"sales", "orders"}},
		{mysql, " sales . `Orders` ", []string{"sales", "`Orders`"}},
		{mysql, "`we.ird`.`a``b`", []string{"`we.ird`", "`a``b`"}},
		{mysql, "db.sch.tbl", []string{"db", "sch", "tbl"}},
		{mysql, "$tmp_1", []string{"$tmp_1"}},
		{exasol, `"My Schema"."T1"`, []string{`"My Schema"`, `"T1"`}},
		{mysql, "", nil},
		{mysql, "   ", nil},
	}
	for _, c := range cases {
		parts, err := ParseQualifiedName(c.d, c.input)
		if err != nil {
			t.Errorf("Unexpected error parsing %q: %v", c.input, err)
		} else if !slices.Equal(parts, c.expected) {
			t.Errorf("ParseQualifiedName(%q): expected %q, found %q", c.input, c.expected, parts)
		}
	}

	for _, input := range []string{"sales.", ".orders", "sales..orders", "`unterminated", "a b"} {
		if parts, err := ParseQualifiedName(mysql, input); err == nil {
			t.Errorf("Expected error parsing %q, instead found %q", input, parts)
		}
	}
}
