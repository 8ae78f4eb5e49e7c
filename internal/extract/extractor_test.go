package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBytes_UnsupportedFormat(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("data"), "xyz", "file.xyz")

	var uf *ErrUnsupportedFormat
	require.True(t, errors.As(err, &uf))
	assert.Equal(t, "xyz", uf.Ext)
	assert.Equal(t, "unsupported file format: xyz", err.Error())
}

func TestExtract_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello registry"), 0644))

	got, err := NewExtractor().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "hello registry", got)
}

func TestExtractHTML_StripsMarkup(t *testing.T) {
	in := []byte(`<html><head><style>body{color:red}</style>
<script>alert(1)</script></head>
<body><h1>Title &amp; more</h1><p>Body   text</p></body></html>`)

	got, err := extractHTML(in)
	require.NoError(t, err)
	assert.Contains(t, got, "Title & more")
	assert.Contains(t, got, "Body text")
	assert.NotContains(t, got, "alert")
	assert.NotContains(t, got, "color:red")
	assert.NotContains(t, got, "<p>")
}

func TestExtractJSON_FlattensNested(t *testing.T) {
	in := []byte(`{"name":"report","meta":{"year":2026,"tags":["a","b"]},"gone":null}`)

	got, err := extractJSON(in)
	require.NoError(t, err)
	assert.Contains(t, got, "name: report")
	assert.Contains(t, got, "meta.year: 2026")
	assert.Contains(t, got, "meta.tags[0]: a")
	assert.Contains(t, got, "meta.tags[1]: b")
	assert.NotContains(t, got, "gone")
}

func TestExtractJSON_Invalid(t *testing.T) {
	_, err := extractJSON([]byte("{broken"))
	assert.Error(t, err)
}

func TestExtractXML_CharDataOnly(t *testing.T) {
	in := []byte(`<doc attr="hidden"><title>Hello</title><body>World</body></doc>`)

	got, err := extractXML(in)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got)
}

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX_TextNodes(t *testing.T) {
	doc := makeZip(t, map[string]string{
		"word/document.xml": `<w:document><w:body><w:p><w:r><w:t>Hello</w:t></w:r>` +
			`<w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p></w:body></w:document>`,
	})

	got, err := extractDOCX(doc)
	require.NoError(t, err)
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, "world")
}

func TestExtractDOCX_NotAZip(t *testing.T) {
	_, err := extractDOCX([]byte("plain bytes"))
	assert.Error(t, err)
}

func TestExtractPPTX_Slides(t *testing.T) {
	deck := makeZip(t, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld><a:t>First slide</a:t></p:sld>`,
		"ppt/slides/slide2.xml": `<p:sld><a:t>Second slide</a:t></p:sld>`,
		"ppt/notes/note1.xml":   `<a:t>ignored</a:t>`,
	})

	got, err := extractPPTX(deck)
	require.NoError(t, err)
	assert.Contains(t, got, "First slide")
	assert.Contains(t, got, "Second slide")
	assert.NotContains(t, got, "ignored")
}

func TestIsImageExt(t *testing.T) {
	assert.True(t, isImageExt("png"))
	assert.True(t, isImageExt("jpeg"))
	assert.True(t, isImageExt("webp"))
	assert.False(t, isImageExt("pdf"))
	assert.False(t, isImageExt(""))
}
