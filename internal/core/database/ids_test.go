package db

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSource(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file (final).docx", "my_file_final_.docx"},
		{"https://example.com/a/b?q=1", "https_example.com_a_b_q_1"},
		{"", "doc"},
		{"///", "doc"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeSource(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeSource_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 200) + ".pdf"
	out := sanitizeSource(long)
	assert.Len(t, out, 64)
}

func TestSanitizeSource_TruncatesOnRunes(t *testing.T) {
	// The regexp keeps only ASCII-safe characters, but the guard must hold
	// even if the class widens: never cut a rune in half.
	long := strings.Repeat("a", 63) + "b" + strings.Repeat("c", 100)
	out := sanitizeSource(long)
	assert.True(t, utf8.ValidString(out))
	assert.Len(t, []rune(out), 64)
}

func TestNewRecordID(t *testing.T) {
	id1 := newRecordID("report.pdf", 3)
	id2 := newRecordID("report.pdf", 3)

	assert.True(t, strings.HasPrefix(id1, "report.pdf_"))
	assert.True(t, strings.HasSuffix(id1, "_3"))
	assert.NotEqual(t, id1, id2, "repeated ingests must not collide")
}
