package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalPDF 拼一个未压缩内容流的两页 PDF
const minimalPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 60 >>
stream
BT /F1 12 Tf (Hello World) Tj ET
BT (second line) Tj ET
endstream
endobj
5 0 obj
<< /Type /Page /Parent 2 0 R >>
endobj
6 0 obj
<< /Title (Annual Report) /Author (Jane Doe) /Subject (Numbers \(2026\)) >>
endobj
trailer
<< /Root 1 0 R /Info 6 0 R >>
%%EOF`

func TestExtractMinimalPDF(t *testing.T) {
	ext := NewPDFExtractor()

	result, err := ext.Extract(context.Background(), strings.NewReader(minimalPDF))
	require.NoError(t, err)

	require.Equal(t, 2, result.PageCount)
	require.Equal(t, "Annual Report", result.Title)
	require.Equal(t, "Jane Doe", result.Author)
	require.Equal(t, "Numbers (2026)", result.Subject)
	require.Contains(t, result.Text, "Hello World")
	require.Contains(t, result.Text, "second line")
}

func TestExtractRejectsNonPDF(t *testing.T) {
	ext := NewPDFExtractor()

	_, err := ext.Extract(context.Background(), strings.NewReader("this is not a pdf"))
	require.Error(t, err)
}

func TestExtractMissingMetadataIsNotAnError(t *testing.T) {
	ext := NewPDFExtractor()

	result, err := ext.Extract(context.Background(), strings.NewReader("%PDF-1.4\n%%EOF"))
	require.NoError(t, err)
	require.Zero(t, result.PageCount)
	require.Empty(t, result.Title)
	require.Empty(t, result.Text)
}

func TestDecodePDFString(t *testing.T) {
	require.Equal(t, "a(b)c", decodePDFString(`a\(b\)c`))
	require.Equal(t, "line1\nline2", decodePDFString(`line1\nline2`))
	require.Equal(t, `back\slash`, decodePDFString(`back\\slash`))
}
