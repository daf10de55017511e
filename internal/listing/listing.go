// Package listing renders a stored batch table as HTML <pre> chunks for
// message transports with a per-message size limit.
package listing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

const (
	// DefaultChunkLimit is the per-message character limit of the chat transport.
	DefaultChunkLimit = 4096

	preOpen  = "<pre>\n"
	preClose = "\n</pre>"
)

// ErrEmptyTable is returned for input without a header row.
var ErrEmptyTable = errors.New("listing: table has no header")

// Options control rendering.
type Options struct {
	// ChunkLimit bounds the length of each chunk in characters, wrapper included.
	ChunkLimit int
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{ChunkLimit: DefaultChunkLimit}
}

// Listing is a rendered table.
type Listing struct {
	// Chunks are self-contained <pre> blocks, in order.
	Chunks []string
	// Total is the sum of the price column over every row.
	Total decimal.Decimal
}

type row struct {
	cells []string
	price decimal.Decimal
}

// Render parses csvText and renders its rows sorted by price, highest first.
func Render(csvText string, opts Options) (Listing, error) {
	if opts.ChunkLimit == 0 {
		opts.ChunkLimit = DefaultChunkLimit
	}
	budget := opts.ChunkLimit - utf8.RuneCountInString(preOpen) - utf8.RuneCountInString(preClose)
	if budget < 1 {
		return Listing{}, fmt.Errorf("Render: chunk limit %d leaves no room for content", opts.ChunkLimit)
	}

	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return Listing{}, fmt.Errorf("Render: parse table: %w", err)
	}
	if len(records) == 0 {
		return Listing{}, ErrEmptyTable
	}

	header := records[0]
	priceCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), domain.ColumnPrice) {
			priceCol = i
			break
		}
	}

	rows := make([]row, 0, len(records)-1)
	total := decimal.Zero
	for _, rec := range records[1:] {
		cells := make([]string, len(header))
		copy(cells, rec)
		price := decimal.Zero
		if priceCol >= 0 {
			price = domain.ParsePrice(cells[priceCol])
		}
		total = total.Add(price)
		rows = append(rows, row{cells: cells, price: price})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].price.GreaterThan(rows[j].price)
	})

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, headerLines(header, budget)...)
	for _, rw := range rows {
		lines = append(lines, joinEscaped(rw.cells))
	}

	return Listing{
		Chunks: Chunk(lines, budget),
		Total:  total,
	}, nil
}

// headerLines renders the bold header and its rule. A header too long for one
// chunk is left plain so no <b> element is split across chunks.
func headerLines(header []string, budget int) []string {
	plain := joinEscaped(header)
	rule := strings.Repeat("-", utf8.RuneCountInString(plain))

	bold := make([]string, len(header))
	for i, h := range header {
		bold[i] = "<b>" + html.EscapeString(h) + "</b>"
	}
	line := strings.Join(bold, " | ")
	if utf8.RuneCountInString(line) > budget {
		line = plain
	}
	return []string{line, rule}
}

func joinEscaped(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = html.EscapeString(c)
	}
	return strings.Join(escaped, " | ")
}

// Chunk packs whole lines into <pre> blocks whose content is at most budget
// characters. A line longer than budget is split between HTML tags and entities.
func Chunk(lines []string, budget int) []string {
	var chunks []string
	var cur bytes.Buffer
	curLen := 0

	flush := func() {
		if curLen == 0 && cur.Len() == 0 {
			return
		}
		chunks = append(chunks, preOpen+cur.String()+preClose)
		cur.Reset()
		curLen = 0
	}

	for _, line := range lines {
		for _, piece := range splitLine(line, budget) {
			n := utf8.RuneCountInString(piece)
			if cur.Len() > 0 && curLen+1+n > budget {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteByte('\n')
				curLen++
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()

	return chunks
}

// splitLine breaks a line into pieces of at most max characters. Tags and
// entities are never divided, but an element's open and close tags may land in
// different pieces; lines carrying markup must fit within max.
func splitLine(line string, max int) []string {
	if utf8.RuneCountInString(line) <= max {
		return []string{line}
	}

	var pieces []string
	var cur strings.Builder
	curLen := 0
	for _, atom := range atoms(line) {
		n := utf8.RuneCountInString(atom)
		if curLen > 0 && curLen+n > max {
			pieces = append(pieces, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(atom)
		curLen += n
	}
	if curLen > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// atoms splits s into single runes, except that "<...>" tags and "&...;"
// entities stay whole.
func atoms(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		switch s[i] {
		case '<':
			if j := strings.IndexByte(s[i:], '>'); j > 0 {
				out = append(out, s[i:i+j+1])
				i += j + 1
				continue
			}
		case '&':
			if j := strings.IndexByte(s[i:], ';'); j > 0 && j <= 10 {
				out = append(out, s[i:i+j+1])
				i += j + 1
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, s[i:i+size])
		i += size
	}
	return out
}
