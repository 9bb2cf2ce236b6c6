package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// extractWordDocument reads word/document.xml out of the DOCX archive and
// walks its run text, annotating rendered page breaks with [Page N] markers.
func extractWordDocument(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	content, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}

	var b strings.Builder
	page := 1
	fmt.Fprintf(&b, "[Page %d]\n", page)

	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var run string
				if err := dec.DecodeElement(&run, &el); err == nil {
					b.WriteString(run)
				}
			case "tab":
				b.WriteString("\t")
			case "br":
				if wordBreakIsPage(el) {
					page++
					fmt.Fprintf(&b, "\n[Page %d]\n", page)
				} else {
					b.WriteString("\n")
				}
			case "lastRenderedPageBreak":
				page++
				fmt.Fprintf(&b, "\n[Page %d]\n", page)
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}

	return b.String(), nil
}

func wordBreakIsPage(el xml.StartElement) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value == "page" {
			return true
		}
	}
	return false
}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractSlides enumerates ppt/slides/slideN.xml in slide order and prefixes
// each slide's text with a [Slide N] marker.
func extractSlides(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}

	type slide struct {
		number int
		name   string
	}
	var slides []slide
	for _, f := range reader.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{number: n, name: f.Name})
	}
	if len(slides) == 0 {
		return "", errors.New("pptx archive has no slides")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var b strings.Builder
	for _, s := range slides {
		content, err := readZipFile(reader, s.name)
		if err != nil || content == nil {
			continue
		}
		fmt.Fprintf(&b, "[Slide %d]\n", s.number)
		b.WriteString(slideText(content))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// slideText collects the a:t runs of one slide, one paragraph per line.
func slideText(content []byte) string {
	var b strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var run string
				if err := dec.DecodeElement(&run, &el); err == nil {
					b.WriteString(run)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}
