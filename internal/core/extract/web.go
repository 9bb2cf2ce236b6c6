package extract

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// extractHTMLStrip is the last-resort HTML provider: drop script/style
// blocks, strip tags, unescape entities, collapse whitespace.
func extractHTMLStrip(data []byte) (string, error) {
	text := string(data)
	text = scriptRe.ReplaceAllString(text, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = blankRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("html stripped to nothing")
	}
	return text, nil
}

// extractJSON re-indents the document so keys and values land on their own
// lines, which chunks far better than a single minified line.
func extractJSON(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("indent json: %w", err)
	}
	return buf.String(), nil
}

// extractXML collects character data, one element's text per line.
func extractXML(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			text := strings.TrimSpace(string(cd))
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
	}
	if b.Len() == 0 {
		return "", errors.New("xml has no character data")
	}
	return b.String(), nil
}

// extractPlainText decodes bytes as UTF-8, dropping invalid sequences the
// way a lossy decode would.
func extractPlainText(data []byte) (string, error) {
	text := strings.ToValidUTF8(string(data), "")
	text = strings.TrimPrefix(text, "\uFEFF")
	return text, nil
}
