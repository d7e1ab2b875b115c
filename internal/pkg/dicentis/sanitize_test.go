package dicentis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain":            {in: "Seat1", want: "Seat1"},
		"spaces":           {in: "Seat 1", want: "Seat_1"},
		"case preserved":   {in: "MALTA", want: "MALTA"},
		"apostrophe":       {in: "O'Brien", want: "O_Brien"},
		"unicode":          {in: "Köln", want: "K_ln"},
		"empty":            {in: "", want: ""},
		"only punctuation": {in: "##", want: "__"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeIdentifier(tc.in))
			// the mapping is pure; repeated calls always agree.
			assert.Equal(t, sanitizeIdentifier(tc.in), sanitizeIdentifier(tc.in))
		})
	}
}

func TestSeatKey(t *testing.T) {
	assert.Equal(t, "John_O_Brien_Line__3", seatKey("John O'Brien", "Line #3"))
	assert.Equal(t, "Seat_1_MALTA", seatKey("Seat 1", "MALTA"))
	assert.Equal(t, "Seat_1_", seatKey("Seat 1", ""))
}

func TestInterpreterKey(t *testing.T) {
	assert.Equal(t, "2_1", interpreterKey("2", "1"))
	assert.Equal(t, "Booth_A_3", interpreterKey("Booth A", "3"))
}

func TestNaturalCompare(t *testing.T) {
	tests := map[string]struct {
		a, b string
		want int
	}{
		"equal":                  {a: "Seat 2", b: "Seat 2", want: 0},
		"numeric run":            {a: "Seat 2", b: "Seat 10", want: -1},
		"numeric run reversed":   {a: "Seat 10", b: "Seat 2", want: 1},
		"lexical prefix":         {a: "Seat", b: "Seat 1", want: -1},
		"different text":         {a: "Aisle 1", b: "Seat 1", want: -1},
		"leading zeros":          {a: "Seat 02", b: "Seat 2", want: 0},
		"number before letters":  {a: "Seat 1a", b: "Seat 1b", want: -1},
		"multi-run":              {a: "R1 D2", b: "R1 D10", want: -1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := naturalCompare(tc.a, tc.b)
			switch {
			case tc.want < 0:
				assert.Negative(t, got)
			case tc.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}
