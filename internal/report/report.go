// Package report holds the analytics result tree and renders it as indented text.
package report

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Node is a value in the report tree: Number, Text or *Section.
type Node interface {
	node()
}

// Number is a monetary leaf.
type Number struct {
	Value decimal.Decimal
}

// Text is a leaf rendered verbatim.
type Text string

// Section is an ordered list of keyed entries.
type Section struct {
	entries []Entry
}

func (Number) node()   {}
func (Text) node()     {}
func (*Section) node() {}

// Key names an entry. Field keys are snake_case identifiers rendered in
// Title Case; label keys come from ledger data and render verbatim.
type Key struct {
	Name  string
	Label bool
}

// Field returns a snake_case field key.
func Field(name string) Key {
	return Key{Name: name}
}

// Label returns a key taken verbatim from data, such as a category or merchant.
func Label(name string) Key {
	return Key{Name: name, Label: true}
}

// String returns the key as it appears in rendered output.
func (k Key) String() string {
	if k.Label {
		return k.Name
	}
	return SnakeToTitle(k.Name)
}

// Entry is one keyed node of a section.
type Entry struct {
	Key   Key
	Value Node
}

// NewSection creates an empty section.
func NewSection() *Section {
	return &Section{}
}

// Add appends an entry and returns the section for chaining.
func (s *Section) Add(key Key, value Node) *Section {
	s.entries = append(s.entries, Entry{Key: key, Value: value})
	return s
}

// AddNumber appends a monetary leaf.
func (s *Section) AddNumber(key Key, value decimal.Decimal) *Section {
	return s.Add(key, Number{Value: value})
}

// Entries returns the section's entries in insertion order.
func (s *Section) Entries() []Entry {
	return s.entries
}

// Lookup returns the value stored under a field or label name.
func (s *Section) Lookup(name string) (Node, bool) {
	for _, e := range s.entries {
		if e.Key.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (s *Section) Len() int {
	return len(s.entries)
}

// Options control rendering.
type Options struct {
	// CurrencySymbol prefixes every Number. Defaults to "$".
	CurrencySymbol string
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{CurrencySymbol: "$"}
}

// Render formats the tree one entry per line. A nested section prints its key,
// then its entries indented two more spaces, then a blank line.
func Render(s *Section, opts Options) string {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = DefaultOptions().CurrencySymbol
	}
	var b strings.Builder
	render(&b, s, 0, opts)
	return strings.TrimRight(b.String(), "\n")
}

func render(b *strings.Builder, s *Section, indent int, opts Options) {
	if s == nil {
		return
	}
	pad := strings.Repeat(" ", indent)
	for _, e := range s.entries {
		switch v := e.Value.(type) {
		case Number:
			fmt.Fprintf(b, "%s%s: %s%s\n", pad, e.Key, opts.CurrencySymbol, v.Value.StringFixed(2))
		case Text:
			fmt.Fprintf(b, "%s%s: %s\n", pad, e.Key, string(v))
		case *Section:
			fmt.Fprintf(b, "%s%s:\n", pad, e.Key)
			render(b, v, indent+2, opts)
			b.WriteString("\n")
		case nil:
			fmt.Fprintf(b, "%s%s:\n", pad, e.Key)
		}
	}
}

// SnakeToTitle converts "top_n_transaction_sums" to "Top N Transaction Sums".
func SnakeToTitle(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
