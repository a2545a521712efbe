package meta

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
)

// qualifiedName is the grammar for a dotted identifier path. Each part keeps
// its quotes, since quoting affects how the part is later matched.
type qualifiedName struct {
	Parts []string `parser:"@Ident ( '.' @Ident )*"`
}

var nameParsers struct {
	sync.Mutex
	byQuotes map[string]*participle.Parser
}

// nameParser returns a parser whose lexer understands the supplied quote
// pairs. Parsers are built once per distinct quote set.
func nameParser(quotes []QuotePair) *participle.Parser {
	var key strings.Builder
	for _, qp := range quotes {
		key.WriteString(qp[0] + qp[1])
	}
	nameParsers.Lock()
	defer nameParsers.Unlock()
	if nameParsers.byQuotes == nil {
		nameParsers.byQuotes = make(map[string]*participle.Parser)
	}
	if p, ok := nameParsers.byQuotes[key.String()]; ok {
		return p
	}

	ident := []string{`[0-9a-zA-Z\x{0080}-\x{FFFF}$_#@]+`}
	for _, qp := range quotes {
		o, c := regexp.QuoteMeta(qp[0]), regexp.QuoteMeta(qp[1])
		ident = append(ident, fmt.Sprintf(`%s(?:[^%s]|%s%s)+%s`, o, c, c, c, c))
	}
	nameLexer := lexer.Must(lexer.Regexp(`([\s\p{Zs}]+)` +
		`|(?P<Ident>` + strings.Join(ident, "|") + `)` +
		`|(?P<Dot>\.)`,
	))
	p := participle.MustBuild(&qualifiedName{}, participle.Lexer(nameLexer))
	nameParsers.byQuotes[key.String()] = p
	return p
}

// ParseQualifiedName splits text such as db."weird.name".tbl into its parts,
// using the dialect's identifier quotes. Quoted parts are returned with their
// quotes intact.
func ParseQualifiedName(d *Dialect, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var qn qualifiedName
	if err := nameParser(d.Quotes).ParseString(text, &qn); err != nil {
		return nil, fmt.Errorf("Unable to parse name %q: %w", text, err)
	}
	return qn.Parts, nil
}
