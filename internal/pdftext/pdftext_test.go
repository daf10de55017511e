package pdftext

import (
	"context"
	"path/filepath"
	"testing"
)

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"none", nil, ""},
		{"one", []string{"page one"}, "\n\npage one"},
		{"two", []string{"a", "b"}, "\n\na\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinPages(tt.pages); got != tt.want {
				t.Errorf("JoinPages() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := NewPageExtractor().ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("ExtractText() expected error for missing file")
	}
}
