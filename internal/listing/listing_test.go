package listing

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// body strips the <pre> wrapper from every chunk and rejoins the lines.
func body(chunks []string) []string {
	var lines []string
	for _, c := range chunks {
		c = strings.TrimPrefix(c, preOpen)
		c = strings.TrimSuffix(c, preClose)
		lines = append(lines, strings.Split(c, "\n")...)
	}
	return lines
}

func TestRender_SortsByPrice(t *testing.T) {
	table := "date,name,price,category\n" +
		"05 Mar 2024,Cafe,3.50,Food\n" +
		"06 Mar 2024,Taxi,12.00,Transport\n"

	got, err := Render(table, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := []string{
		"<b>date</b> | <b>name</b> | <b>price</b> | <b>category</b>",
		strings.Repeat("-", len("date | name | price | category")),
		"06 Mar 2024 | Taxi | 12.00 | Transport",
		"05 Mar 2024 | Cafe | 3.50 | Food",
	}
	if diff := cmp.Diff(want, body(got.Chunks)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	if len(got.Chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(got.Chunks))
	}
	if got.Total.StringFixed(2) != "15.50" {
		t.Errorf("Total = %s, want 15.50", got.Total.StringFixed(2))
	}
}

func TestRender_InvalidPrices(t *testing.T) {
	table := "date,name,price,category\n" +
		"01 Mar 2024,Unknown,n/a,Misc\n" +
		"02 Mar 2024,Refund,-4.00,Misc\n" +
		"03 Mar 2024,Shop,\"1,000.00\",Misc\n"

	got, err := Render(table, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := body(got.Chunks)
	var names []string
	for _, l := range lines[2:] {
		names = append(names, strings.Split(l, " | ")[1])
	}
	if diff := cmp.Diff([]string{"Shop", "Unknown", "Refund"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got.Total.StringFixed(2) != "996.00" {
		t.Errorf("Total = %s, want 996.00", got.Total.StringFixed(2))
	}
}

func TestRender_Escapes(t *testing.T) {
	table := "date,name,price,category\n01 Mar 2024,A&B <Shop>,1,Food\n"

	got, err := Render(table, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got.Chunks[0], "A&amp;B &lt;Shop&gt;") {
		t.Errorf("cell not escaped: %q", got.Chunks[0])
	}
	if strings.Contains(got.Chunks[0], "<Shop>") {
		t.Errorf("raw markup leaked: %q", got.Chunks[0])
	}
}

func TestRender_Empty(t *testing.T) {
	if _, err := Render("", DefaultOptions()); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Render(\"\") error = %v, want ErrEmptyTable", err)
	}
}

func TestRender_ChunkLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,name,price,category\n")
	const rows = 60
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "01 Mar 2024,Merchant number %02d,%d.00,Food\n", i, i)
	}

	opts := Options{ChunkLimit: 256}
	got, err := Render(b.String(), opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(got.Chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got.Chunks))
	}

	for i, c := range got.Chunks {
		if n := utf8.RuneCountInString(c); n > opts.ChunkLimit {
			t.Errorf("chunk %d has %d characters, limit %d", i, n, opts.ChunkLimit)
		}
		if !strings.HasPrefix(c, "<pre>\n") || !strings.HasSuffix(c, "\n</pre>") {
			t.Errorf("chunk %d not wrapped: %q", i, c)
		}
	}

	lines := body(got.Chunks)
	if len(lines) != rows+2 {
		t.Fatalf("got %d lines, want %d", len(lines), rows+2)
	}
	if !strings.Contains(lines[2], "Merchant number 59") {
		t.Errorf("first row = %q, want the most expensive", lines[2])
	}
}

func TestChunk_SplitsLongLine(t *testing.T) {
	line := strings.Repeat("a&amp;", 10) + "<b>bold</b>"
	chunks := Chunk([]string{line}, 7)

	var rebuilt strings.Builder
	for _, c := range chunks {
		content := strings.TrimSuffix(strings.TrimPrefix(c, preOpen), preClose)
		if utf8.RuneCountInString(content) > 7 {
			t.Errorf("piece %q exceeds budget", content)
		}
		if strings.Count(content, "&") != strings.Count(content, ";") {
			t.Errorf("entity cut in piece %q", content)
		}
		if strings.Count(content, "<") != strings.Count(content, ">") {
			t.Errorf("tag cut in piece %q", content)
		}
		rebuilt.WriteString(strings.ReplaceAll(content, "\n", ""))
	}
	if rebuilt.String() != line {
		t.Errorf("rebuilt line = %q, want %q", rebuilt.String(), line)
	}
}

func TestRender_LimitTooSmall(t *testing.T) {
	if _, err := Render("date,name,price,category\n", Options{ChunkLimit: 10}); err == nil {
		t.Error("expected error for a limit smaller than the wrapper")
	}
}

func TestRender_HeaderMarkupNeverSpansChunks(t *testing.T) {
	table := "date,name,price,category\n01 Mar 2024,Cafe,3.50,Food\n"

	tests := []struct {
		name     string
		limit    int
		wantBold bool
	}{
		{name: "fits", limit: 4096, wantBold: true},
		{name: "too narrow", limit: 20, wantBold: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(table, Options{ChunkLimit: tt.limit})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			bold := false
			for i, c := range got.Chunks {
				if utf8.RuneCountInString(c) > tt.limit {
					t.Errorf("chunk %d exceeds limit: %q", i, c)
				}
				if strings.Count(c, "<b>") != strings.Count(c, "</b>") {
					t.Errorf("chunk %d splits a bold element: %q", i, c)
				}
				if strings.Contains(c, "<b>") {
					bold = true
				}
			}
			if bold != tt.wantBold {
				t.Errorf("bold header = %v, want %v", bold, tt.wantBold)
			}
		})
	}
}
