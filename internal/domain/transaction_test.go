package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: " 05 Mar 2024 ", want: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)},
		{input: "5 Mar 2024", want: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)},
		{input: "28 Feb 2024", want: time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{input: "2024-03-05", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDatePadsDay(t *testing.T) {
	d := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "05 Mar 2024" {
		t.Errorf("FormatDate() = %q, want %q", got, "05 Mar 2024")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3.50", "3.5"},
		{"-12.00", "-12"},
		{"1,234.56", "1234.56"},
		{"", "0"},
		{"   ", "0"},
		{"n/a", "0"},
		{"12.3.4", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePrice(tt.input).String(); got != tt.want {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestStableID(t *testing.T) {
	tx := Transaction{
		Date:  time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		Name:  "Cafe",
		Price: decimal.RequireFromString("3.50"),
	}

	first := StableID("mar", 0, tx)
	if first != StableID("mar", 0, tx) {
		t.Error("StableID is not deterministic")
	}
	if first == StableID("mar", 1, tx) {
		t.Error("StableID should differ by row index")
	}
	if first == StableID("apr", 0, tx) {
		t.Error("StableID should differ by batch")
	}
}
