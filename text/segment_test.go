package text

import (
	"reflect"
	"testing"
)

func TestSplitCells(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Cluster
	}{
		{"empty", "", nil},
		{"ascii", "ab", []Cluster{{"a", 1}, {"b", 1}}},
		{"wide", "日本", []Cluster{{"日", 2}, {"本", 2}}},
		{"combining mark", "e\u0301x", []Cluster{{"e\u0301", 1}, {"x", 1}}},
		{"precomposed", "éx", []Cluster{{"é", 1}, {"x", 1}}},
		{"control is one column", "\t", []Cluster{{"\t", 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCells(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCells(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	if got := Columns(SplitCells("a日b")); got != 4 {
		t.Errorf("Columns = %d, want 4", got)
	}
	if got := Columns(nil); got != 0 {
		t.Errorf("Columns(nil) = %d, want 0", got)
	}
}
