package pdf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTextPDF creates a single-page PDF with proper xref offsets. Each
// line is drawn 20 points below the previous one in a monospace-width font.
func buildTextPDF(lines ...string) []byte {
	var stream strings.Builder
	stream.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			stream.WriteString("0 -20 Td\n")
		}
		escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(line)
		stream.WriteString("(" + escaped + ") Tj\n")
	}
	stream.WriteString("ET")

	widths := strings.TrimSpace(strings.Repeat("600 ", 95))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length " + strconv.Itoa(stream.Len()) + " >>\nstream\n")
	b.WriteString(stream.String())
	b.WriteString("\nendstream\nendobj\n")
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(padOffset(offsets[i]) + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n" + strconv.Itoa(xref) + "\n%%EOF\n")
	return []byte(b.String())
}

func padOffset(n int) string {
	s := strconv.Itoa(n)
	return strings.Repeat("0", 10-len(s)) + s
}

func writePDF(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buildTextPDF(lines...), 0o600))
	return path
}

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "1-3", want: []int{1, 2, 3}},
		{name: "mixed with spaces", pageRange: " 1-2 , 5 ", want: []int{1, 2, 5}},
		{name: "duplicates dropped", pageRange: "2,1-3,2", want: []int{2, 1, 3}},
		{name: "reversed range", pageRange: "3-1", expectError: true},
		{name: "not a number", pageRange: "a", expectError: true},
		{name: "open range", pageRange: "2-", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.pageRange)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePages(t *testing.T) {
	got, err := ResolvePages("", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = ResolvePages("2", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)

	_, err = ResolvePages("4", 3)
	assert.ErrorContains(t, err, "out of range")

	_, err = ResolvePages("0", 3)
	assert.Error(t, err)
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(writePDF(t, "Hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bad := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o600))
	_, err = PageCount(bad)
	assert.Error(t, err)
}
