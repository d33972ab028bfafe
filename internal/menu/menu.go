// Package menu builds transport-neutral selection grids for wizard steps.
package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// SentinelKind distinguishes reserved selections from catalog items.
type SentinelKind string

const (
	// SentinelNone marks a regular catalog item.
	SentinelNone SentinelKind = "i"
	// SentinelAll accepts the already selected parent without narrowing.
	SentinelAll SentinelKind = "all"
	// SentinelAny leaves the field unset (wildcard).
	SentinelAny SentinelKind = "any"
)

const tokenTag = "w"

// Tag identifies the step and field a menu was rendered for.
type Tag struct {
	Step  int
	Field string
}

// Token is the structured payload attached to every button.
type Token struct {
	Tag
	Sentinel SentinelKind
	ID       string
}

// Encode renders the token as callback data: w:<step>:<field>:<kind>:<id>.
// Telegram limits callback data to 64 bytes.
func (t Token) Encode() string {
	return strings.Join([]string{tokenTag, strconv.Itoa(t.Step), t.Field, string(t.Sentinel), t.ID}, ":")
}

// ParseToken decodes callback data produced by Token.Encode.
func ParseToken(data string) (Token, error) {
	parts := strings.SplitN(data, ":", 5)
	if len(parts) != 5 || parts[0] != tokenTag {
		return Token{}, fmt.Errorf("not a wizard token: %q", data)
	}

	step, err := strconv.Atoi(parts[1])
	if err != nil || step < 0 {
		return Token{}, fmt.Errorf("invalid step in token %q", data)
	}
	if parts[2] == "" {
		return Token{}, fmt.Errorf("missing field in token %q", data)
	}

	kind := SentinelKind(parts[3])
	switch kind {
	case SentinelNone:
		if parts[4] == "" {
			return Token{}, fmt.Errorf("missing id in token %q", data)
		}
	case SentinelAll, SentinelAny:
	default:
		return Token{}, fmt.Errorf("unknown kind %q in token", parts[3])
	}

	return Token{
		Tag:      Tag{Step: step, Field: parts[2]},
		Sentinel: kind,
		ID:       parts[4],
	}, nil
}

// Item is a selectable catalog entry.
type Item struct {
	ID    string
	Label string
}

// Sentinel is a reserved entry placed before catalog items.
type Sentinel struct {
	Label string
	Kind  SentinelKind
}

// Button is one cell of a rendered menu.
type Button struct {
	Label string
	Token Token
}

// Menu is a grid of buttons, row by row.
type Menu struct {
	Rows [][]Button
}

// Len returns the total number of buttons.
func (m Menu) Len() int {
	n := 0
	for _, row := range m.Rows {
		n += len(row)
	}
	return n
}

// Build lays out sentinels followed by items into rows of at most columns buttons.
// Source order is preserved and nothing is truncated.
func Build(items []Item, tag Tag, columns int, sentinels []Sentinel) Menu {
	if columns < 1 {
		columns = 1
	}

	buttons := make([]Button, 0, len(items)+len(sentinels))
	for _, s := range sentinels {
		buttons = append(buttons, Button{
			Label: s.Label,
			Token: Token{Tag: tag, Sentinel: s.Kind},
		})
	}
	for _, it := range items {
		buttons = append(buttons, Button{
			Label: it.Label,
			Token: Token{Tag: tag, Sentinel: SentinelNone, ID: it.ID},
		})
	}

	var m Menu
	for i := 0; i < len(buttons); i += columns {
		end := i + columns
		if end > len(buttons) {
			end = len(buttons)
		}
		m.Rows = append(m.Rows, buttons[i:end])
	}
	return m
}
