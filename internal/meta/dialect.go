package meta

import (
	"fmt"
	"strings"
)

// SQLDialect is the identifier-handling subset of a dialect that name
// resolution depends on.
type SQLDialect interface {
	Name() string
	IsQuoted(ident string) bool
	Unquote(ident string) string
	Quote(ident string) string

	// TransformName applies the dialect's convention for storing unquoted
	// identifiers, e.g. upper-casing them.
	TransformName(name string) string
}

// IdentifierCase describes how a database stores unquoted identifiers.
type IdentifierCase int

// Constants enumerating identifier storage conventions.
const (
	CaseMixed IdentifierCase = iota
	CaseUpper
	CaseLower
)

func (ic IdentifierCase) String() string {
	switch ic {
	case CaseUpper:
		return "upper"
	case CaseLower:
		return "lower"
	default:
		return "mixed"
	}
}

// InsertMode describes how a dialect supports inserting several rows with one
// statement.
type InsertMode int

// Constants enumerating multi-value insert modes.
const (
	InsertModeNotSupported InsertMode = iota
	InsertModeGroupRows
	InsertModePlain
)

// QuotePair is an opening and closing identifier quote.
type QuotePair [2]string

// Dialect is a descriptor of a SQL dialect. It satisfies SQLDialect.
type Dialect struct {
	Title            string
	ID               string
	Quotes           []QuotePair // first pair is used when quoting
	StringEscape     rune        // 0 if the dialect only supports doubled quotes
	ExecuteKeywords  []string
	MultiValueInsert InsertMode
	StoredCase       IdentifierCase
}

// Built-in dialects. LookupDialect returns copies of these.
var builtinDialects = []*Dialect{
	{
		Title:            "SQL-92",
		ID:               "sql92",
		Quotes:           []QuotePair{{`"`, `"`}},
		ExecuteKeywords:  []string{"CALL"},
		MultiValueInsert: InsertModeNotSupported,
		StoredCase:       CaseUpper,
	},
	{
		Title:            "MySQL",
		ID:               "mysql",
		Quotes:           []QuotePair{{"`", "`"}},
		StringEscape:     '\\',
		ExecuteKeywords:  []string{"CALL"},
		MultiValueInsert: InsertModeGroupRows,
		StoredCase:       CaseMixed,
	},
	{
		Title:            "BigQuery",
		ID:               "google_bigquery",
		Quotes:           []QuotePair{{"`", "`"}},
		StringEscape:     '\\',
		ExecuteKeywords:  []string{"CALL"},
		MultiValueInsert: InsertModeGroupRows,
		StoredCase:       CaseMixed,
	},
	{
		Title:            "Exasol",
		ID:               "exasol",
		Quotes:           []QuotePair{{`"`, `"`}},
		ExecuteKeywords:  []string{"EXECUTE SCRIPT"},
		MultiValueInsert: InsertModeGroupRows,
		StoredCase:       CaseUpper,
	},
	{
		Title:            "DB2",
		ID:               "db2",
		Quotes:           []QuotePair{{`"`, `"`}},
		ExecuteKeywords:  []string{"CALL"},
		MultiValueInsert: InsertModeGroupRows,
		StoredCase:       CaseUpper,
	},
}

// LookupDialect returns a copy of the built-in dialect with the supplied id.
func LookupDialect(id string) (*Dialect, error) {
	for _, d := range builtinDialects {
		if strings.EqualFold(d.ID, id) {
			return d.clone(), nil
		}
	}
	return nil, fmt.Errorf("Unknown SQL dialect %q", id)
}

// MustLookupDialect is like LookupDialect, but panics on an unknown id.
func MustLookupDialect(id string) *Dialect {
	d, err := LookupDialect(id)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dialect) clone() *Dialect {
	d2 := *d
	d2.Quotes = append([]QuotePair(nil), d.Quotes...)
	d2.ExecuteKeywords = append([]string(nil), d.ExecuteKeywords...)
	return &d2
}

// WithStoredCase returns a copy of d using a different convention for
// unquoted identifiers.
func (d *Dialect) WithStoredCase(ic IdentifierCase) *Dialect {
	d2 := d.clone()
	d2.StoredCase = ic
	return d2
}

// Name returns the dialect's display name.
func (d *Dialect) Name() string {
	return d.Title
}

func (d *Dialect) quotePairFor(ident string) (QuotePair, bool) {
	for _, qp := range d.Quotes {
		if len(ident) >= len(qp[0])+len(qp[1]) && strings.HasPrefix(ident, qp[0]) && strings.HasSuffix(ident, qp[1]) {
			return qp, true
		}
	}
	return QuotePair{}, false
}

// IsQuoted returns true if ident is wrapped in one of the dialect's identifier
// quote pairs.
func (d *Dialect) IsQuoted(ident string) bool {
	_, ok := d.quotePairFor(ident)
	return ok
}

// Unquote strips identifier quotes from ident, collapsing doubled closing
// quotes. Unquoted input is returned as-is.
func (d *Dialect) Unquote(ident string) string {
	qp, ok := d.quotePairFor(ident)
	if !ok {
		return ident
	}
	ident = ident[len(qp[0]) : len(ident)-len(qp[1])]
	return strings.ReplaceAll(ident, qp[1]+qp[1], qp[1])
}

// Quote wraps ident in the dialect's primary identifier quotes, doubling any
// closing quote characters already present.
func (d *Dialect) Quote(ident string) string {
	if len(d.Quotes) == 0 {
		return ident
	}
	qp := d.Quotes[0]
	return qp[0] + strings.ReplaceAll(ident, qp[1], qp[1]+qp[1]) + qp[1]
}

// TransformName case-folds name according to the dialect's StoredCase.
func (d *Dialect) TransformName(name string) string {
	switch d.StoredCase {
	case CaseUpper:
		return strings.ToUpper(name)
	case CaseLower:
		return strings.ToLower(name)
	default:
		return name
	}
}

// QuoteString returns s as a single-quoted string literal.
func (d *Dialect) QuoteString(s string) string {
	if d.StringEscape != 0 {
		esc := string(d.StringEscape)
		s = strings.ReplaceAll(s, esc, esc+esc)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsExecuteKeyword returns true if the statement beginning stmt invokes a
// stored procedure or script, e.g. CALL in most dialects.
func (d *Dialect) IsExecuteKeyword(stmt string) bool {
	fields := strings.Fields(stmt)
	for _, kw := range d.ExecuteKeywords {
		kwFields := strings.Fields(kw)
		if len(fields) < len(kwFields) {
			continue
		}
		match := true
		for n := range kwFields {
			if !strings.EqualFold(fields[n], kwFields[n]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
