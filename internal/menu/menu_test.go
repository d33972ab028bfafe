package menu

import (
	"fmt"
	"testing"
)

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{ID: fmt.Sprintf("%d", i+1), Label: fmt.Sprintf("Item %d", i+1)}
	}
	return out
}

func TestBuild_RowCount(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		columns   int
		sentinels int
		wantRows  int
	}{
		{"empty", 0, 2, 0, 0},
		{"single item", 1, 3, 0, 1},
		{"exact fill", 4, 2, 0, 2},
		{"partial last row", 5, 2, 0, 3},
		{"sentinel adds a cell", 4, 2, 1, 3},
		{"one column", 3, 1, 1, 4},
		{"zero columns treated as one", 3, 0, 0, 3},
		{"wide grid", 7, 3, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sentinels []Sentinel
			for i := 0; i < tt.sentinels; i++ {
				sentinels = append(sentinels, Sentinel{Label: "Any", Kind: SentinelAny})
			}

			m := Build(items(tt.items), Tag{Step: 3, Field: "sch"}, tt.columns, sentinels)

			if len(m.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(m.Rows), tt.wantRows)
			}
			cols := tt.columns
			if cols < 1 {
				cols = 1
			}
			for i, row := range m.Rows {
				if len(row) > cols || len(row) == 0 {
					t.Errorf("row %d has %d buttons, want 1..%d", i, len(row), cols)
				}
			}
			if m.Len() != tt.items+tt.sentinels {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.items+tt.sentinels)
			}
		})
	}
}

func TestBuild_SentinelsFirstInOrder(t *testing.T) {
	sentinels := []Sentinel{
		{Label: "All", Kind: SentinelAll},
		{Label: "Any", Kind: SentinelAny},
	}
	m := Build(items(3), Tag{Step: 2, Field: "sub"}, 2, sentinels)

	first := m.Rows[0]
	if first[0].Label != "All" || first[0].Token.Sentinel != SentinelAll {
		t.Errorf("first button = %+v, want All sentinel", first[0])
	}
	if first[1].Label != "Any" || first[1].Token.Sentinel != SentinelAny {
		t.Errorf("second button = %+v, want Any sentinel", first[1])
	}
	if m.Rows[1][0].Token.ID != "1" {
		t.Errorf("first item id = %q, want 1", m.Rows[1][0].Token.ID)
	}
}

func TestBuild_TokensAreUniqueAndTagged(t *testing.T) {
	tag := Tag{Step: 1, Field: "reg"}
	m := Build(items(10), tag, 3, []Sentinel{{Label: "Any", Kind: SentinelAny}})

	seen := make(map[string]bool)
	for _, row := range m.Rows {
		for _, b := range row {
			if b.Token.Tag != tag {
				t.Errorf("button %q has tag %+v, want %+v", b.Label, b.Token.Tag, tag)
			}
			data := b.Token.Encode()
			if seen[data] {
				t.Errorf("duplicate callback data %q", data)
			}
			seen[data] = true
		}
	}
}

func TestToken_EncodeParse(t *testing.T) {
	tests := []Token{
		{Tag: Tag{Step: 0, Field: "res"}, Sentinel: SentinelNone, ID: "abc123"},
		{Tag: Tag{Step: 2, Field: "sub"}, Sentinel: SentinelAll},
		{Tag: Tag{Step: 5, Field: "prof"}, Sentinel: SentinelAny},
		{Tag: Tag{Step: 1, Field: "reg"}, Sentinel: SentinelNone, ID: "id:with:colons"},
	}

	for _, want := range tests {
		t.Run(want.Encode(), func(t *testing.T) {
			got, err := ParseToken(want.Encode())
			if err != nil {
				t.Fatalf("ParseToken() error: %v", err)
			}
			if got != want {
				t.Errorf("ParseToken() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestParseToken_Invalid(t *testing.T) {
	tests := []string{
		"",
		"start_search",
		"select_region_113",
		"w:x:reg:i:1",
		"w:-1:reg:i:1",
		"w:1::i:1",
		"w:1:reg:i:",
		"w:1:reg:bogus:1",
		"x:1:reg:i:1",
		"w:1:reg",
	}

	for _, data := range tests {
		t.Run(data, func(t *testing.T) {
			if _, err := ParseToken(data); err == nil {
				t.Errorf("ParseToken(%q) expected error", data)
			}
		})
	}
}
