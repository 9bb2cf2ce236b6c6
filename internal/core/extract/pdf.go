package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// extractPDFPages walks the document page by page so every page's text is
// annotated with its position. Structural markers survive chunking and give
// the language model a locator to cite.
func extractPDFPages(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		fmt.Fprintf(&b, "[Page %d]\n%s\n", i, content)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("no extractable text in pdf")
	}
	return b.String(), nil
}

// docconvProvider adapts docconv.Convert into a chain link for the given
// canonical MIME type.
func docconvProvider(mimeType string) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
		if err != nil {
			return "", fmt.Errorf("docconv %s: %w", mimeType, err)
		}
		return res.Body, nil
	}
}

// extractImageOCR hands image bytes to docconv's OCR path. Builds without an
// OCR engine report the absence as an error, which the dispatcher turns into
// an inline error string rather than a hard failure.
func extractImageOCR(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "image/png", false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res.Body, nil
}
