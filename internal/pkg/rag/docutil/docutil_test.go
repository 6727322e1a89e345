package docutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/internal/pkg/rag/docutil"
)

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		company string
		year    int
		quarter string
	}{
		{
			name:    "quarterly report",
			path:    "data/raw/apple-inc_2023_Q4_earnings.txt",
			company: "Apple Inc",
			year:    2023,
			quarter: "Q4",
		},
		{
			name:    "annual report",
			path:    "microsoft_2024_annual_report.txt",
			company: "Microsoft",
			year:    2024,
			quarter: "Annual",
		},
		{
			name:    "lowercase quarter",
			path:    "nvidia_q2_2025.txt",
			company: "Nvidia",
			year:    2025,
			quarter: "Q2",
		},
		{
			name:    "no underscore",
			path:    "tesla-motors.txt",
			company: "Tesla Motors",
			year:    0,
			quarter: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := docutil.ExtractMetadata(tt.path)
			assert.Equal(t, tt.company, meta.Company)
			assert.Equal(t, tt.year, meta.Year)
			assert.Equal(t, tt.quarter, meta.Quarter)
			assert.Equal(t, filepath.Base(tt.path), meta.Source)
			assert.Equal(t, "earnings_report", meta.DocType)
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "Revenue  grew\n\n12%   year over year. Page 3 of 12 Operating margin: 29.8%"
	out := docutil.CleanText(in)

	assert.NotContains(t, out, "Page 3 of 12")
	assert.NotContains(t, out, "\n")
	assert.Contains(t, out, "Revenue grew 12% year over year.")
}

func TestCleanTextStripsSpecialChars(t *testing.T) {
	out := docutil.CleanText(`EPS was "$1.46"`)
	assert.Equal(t, "EPS was $1.46", out)
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_2023_Q1.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.TXT"), []byte("x"), 0o644))

	files, err := docutil.FindFiles(dir, []string{".txt"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
