// Package extract converts raw document bytes into a single UTF-8 text blob.
//
// Dispatch is by substring-matching the lowercased declared content type or
// file extension against known format families. Each family owns an ordered
// chain of providers; the dispatcher tries them in order and stops at the
// first non-empty success. When every provider fails, the dispatcher returns
// a human-readable "Error: ..." string instead of an error. That string flows
// into chunking, embedding and storage like real content — a known weak point
// of the platform, kept because callers and stored collections depend on the
// behavior.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrUnavailable signals that a provider's backend is not present in this
// build or environment (e.g. no OCR engine, no pdftotext binary). The
// dispatcher falls through to the next provider without logging a failure.
var ErrUnavailable = errors.New("extraction backend unavailable")

// provider is one link in a family's fallback chain.
type provider struct {
	name    string
	extract func(data []byte) (string, error)
}

// Extractor dispatches raw bytes to format-specific provider chains.
type Extractor struct {
	log *zap.SugaredLogger
}

// New creates an extractor. The logger must not be nil; extraction emits
// verbose per-stage debug output as an operational aid.
func New(log *zap.SugaredLogger) *Extractor {
	return &Extractor{log: log}
}

// Normalize converts raw bytes plus a declared MIME type or filename into
// text. It never returns an error: total extraction failure yields an inline
// error marker string that is ingested as content.
func (e *Extractor) Normalize(data []byte, declaredType string) string {
	family, chain := chainFor(declaredType)
	e.log.Debugw("extract: dispatch",
		"declared_type", declaredType, "family", family, "bytes", len(data))

	for _, p := range chain {
		text, err := p.extract(data)
		switch {
		case errors.Is(err, ErrUnavailable):
			e.log.Debugw("extract: provider unavailable", "provider", p.name)
		case err != nil:
			e.log.Warnw("extract: provider failed", "provider", p.name, "err", err)
		case strings.TrimSpace(text) == "":
			e.log.Debugw("extract: provider returned empty text", "provider", p.name)
		default:
			e.log.Debugw("extract: done",
				"provider", p.name, "family", family, "chars", len(text))
			return text
		}
	}

	if family == familyImage {
		return "Error: Unable to extract text from image: no OCR backend available"
	}
	return fmt.Sprintf("Error: Unable to extract text from %s content (declared type %q)", family, declaredType)
}

const (
	familyPDF        = "pdf"
	familyWord       = "word"
	familyExcel      = "excel"
	familyPowerPoint = "powerpoint"
	familyCSV        = "csv"
	familyHTML       = "html"
	familyImage      = "image"
	familyJSON       = "json"
	familyXML        = "xml"
	familyMarkdown   = "markdown"
	familyText       = "text"
)

// chainFor maps a declared type or filename onto a format family and its
// provider chain. Matching is deliberately loose: MIME types, bare
// extensions and full filenames all land in the right family.
func chainFor(declaredType string) (string, []provider) {
	t := strings.ToLower(strings.TrimSpace(declaredType))

	switch {
	case strings.Contains(t, "pdf"):
		return familyPDF, []provider{
			{"pdf-pages", extractPDFPages},
			{"docconv-pdf", docconvProvider("application/pdf")},
		}
	case strings.Contains(t, "spreadsheetml"), strings.Contains(t, "excel"),
		hasAnySuffix(t, ".xlsx", ".xlsm", ".xls"):
		return familyExcel, []provider{
			{"xlsx-sheets", extractWorkbook},
		}
	case strings.Contains(t, "presentationml"), strings.Contains(t, "powerpoint"),
		hasAnySuffix(t, ".pptx", ".ppt"):
		return familyPowerPoint, []provider{
			{"pptx-slides", extractSlides},
			{"docconv-pptx", docconvProvider("application/vnd.openxmlformats-officedocument.presentationml.presentation")},
		}
	case strings.Contains(t, "wordprocessingml"), strings.Contains(t, "msword"),
		hasAnySuffix(t, ".docx", ".doc"):
		return familyWord, []provider{
			{"docx-pages", extractWordDocument},
			{"docconv-docx", docconvProvider("application/vnd.openxmlformats-officedocument.wordprocessingml.document")},
		}
	case strings.Contains(t, "csv"):
		return familyCSV, []provider{
			{"csv-rows", extractCSV},
			{"plain-text", extractPlainText},
		}
	case strings.Contains(t, "html"):
		return familyHTML, []provider{
			{"docconv-html", docconvProvider("text/html")},
			{"html-strip", extractHTMLStrip},
		}
	case strings.Contains(t, "image/"),
		hasAnySuffix(t, ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"):
		return familyImage, []provider{
			{"docconv-ocr", extractImageOCR},
		}
	case strings.Contains(t, "json"):
		return familyJSON, []provider{
			{"json-pretty", extractJSON},
			{"plain-text", extractPlainText},
		}
	case strings.Contains(t, "xml"):
		return familyXML, []provider{
			{"xml-chardata", extractXML},
			{"plain-text", extractPlainText},
		}
	case strings.Contains(t, "markdown"), hasAnySuffix(t, ".md", ".markdown"):
		return familyMarkdown, []provider{
			{"plain-text", extractPlainText},
		}
	default:
		return familyText, []provider{
			{"plain-text", extractPlainText},
		}
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
