package db

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var idUnsafeRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// newRecordID builds a globally-unique record id from the source name, a
// random suffix and the chunk position. The random component keeps repeated
// ingests of the same filename from colliding.
func newRecordID(source string, position int) string {
	return fmt.Sprintf("%s_%s_%d", sanitizeSource(source), uuid.NewString()[:8], position)
}

// sanitizeSource makes a filename or URL safe for use inside a record id.
func sanitizeSource(source string) string {
	s := idUnsafeRe.ReplaceAllString(source, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "doc"
	}
	if r := []rune(s); len(r) > 64 {
		s = string(r[:64])
	}
	return s
}
