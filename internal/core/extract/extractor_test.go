package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor() *Extractor {
	return New(zap.NewNop().Sugar())
}

func TestChainFor_FamilyDetection(t *testing.T) {
	cases := []struct {
		declared string
		family   string
	}{
		{"application/pdf", familyPDF},
		{"report.PDF", familyPDF},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", familyWord},
		{"notes.docx", familyWord},
		{"application/msword", familyWord},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", familyExcel},
		{"budget.xlsx", familyExcel},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", familyPowerPoint},
		{"deck.pptx", familyPowerPoint},
		{"text/csv", familyCSV},
		{"text/html", familyHTML},
		{"image/png", familyImage},
		{"scan.jpeg", familyImage},
		{"application/json", familyJSON},
		{"application/xml", familyXML},
		{"readme.md", familyMarkdown},
		{"text/markdown", familyMarkdown},
		{"text/plain", familyText},
		{"application/octet-stream", familyText},
		{"", familyText},
	}
	for _, tc := range cases {
		t.Run(tc.declared, func(t *testing.T) {
			family, chain := chainFor(tc.declared)
			assert.Equal(t, tc.family, family)
			assert.NotEmpty(t, chain)
		})
	}
}

func TestNormalize_PlainText(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte("hello plain world"), "text/plain")
	assert.Equal(t, "hello plain world", out)
}

func TestNormalize_PlainTextDropsInvalidUTF8(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte{'o', 'k', 0xff, 0xfe, '!'}, "text/plain")
	assert.Equal(t, "ok!", out)
}

func TestNormalize_JSONIsIndented(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte(`{"name":"acme","size":3}`), "application/json")
	assert.Contains(t, out, `"name": "acme"`)
	assert.Contains(t, out, "\n")
}

func TestNormalize_InvalidJSONFallsBackToPlainText(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte(`{not json`), "application/json")
	assert.Equal(t, "{not json", out)
}

func TestNormalize_CSVRowsPipeJoined(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte("name,qty\nwidget,3\n"), "text/csv")
	assert.Contains(t, out, "name | qty")
	assert.Contains(t, out, "widget | 3")
}

func TestNormalize_XMLCharData(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte("<root><item>alpha</item><item>beta</item></root>"), "application/xml")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.NotContains(t, out, "<item>")
}

func TestNormalize_ImageWithoutOCRBecomesInlineError(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.True(t, strings.HasPrefix(out, "Error:"), "got %q", out)
}

func TestNormalize_GarbagePDFBecomesInlineError(t *testing.T) {
	e := newTestExtractor()
	out := e.Normalize([]byte("definitely not a pdf"), "application/pdf")
	assert.True(t, strings.HasPrefix(out, "Error:"), "got %q", out)
}

func TestExtractHTMLStrip(t *testing.T) {
	html := `<html><head><style>p{color:red}</style><script>alert(1)</script></head>` +
		`<body><p>Hello &amp; welcome</p></body></html>`
	out, err := extractHTMLStrip([]byte(html))
	require.NoError(t, err)
	assert.Contains(t, out, "Hello & welcome")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "color:red")
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractWordDocument_PageMarkers(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>first page text</w:t></w:r></w:p>
    <w:p><w:r><w:lastRenderedPageBreak/><w:t>second page text</w:t></w:r></w:p>
  </w:body>
</w:document>`
	out, err := extractWordDocument(buildDocx(t, doc))
	require.NoError(t, err)
	assert.Contains(t, out, "[Page 1]")
	assert.Contains(t, out, "first page text")
	assert.Contains(t, out, "[Page 2]")
	assert.Contains(t, out, "second page text")
}

func TestExtractSlides_SlideMarkersInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	slideXML := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<a:p><a:r><a:t>%s</a:t></a:r></a:p></p:sld>`
	for _, s := range []struct{ name, text string }{
		{"ppt/slides/slide2.xml", "closing remarks"},
		{"ppt/slides/slide1.xml", "opening remarks"},
	} {
		f, err := w.Create(s.name)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.ReplaceAll(slideXML, "%s", s.text)))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	out, err := extractSlides(buf.Bytes())
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "[Slide 1]"), strings.Index(out, "[Slide 2]"))
	assert.Less(t, strings.Index(out, "opening remarks"), strings.Index(out, "closing remarks"))
}
