package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

func TestParseSources(t *testing.T) {
	input := strings.Join([]string{
		"\ufeff# price lists",
		"",
		`Pergola Deluxe = "https://docs.google.com/spreadsheets/d/abc/edit#gid=0"`,
		"Screen ZIP - https://example.com/screen.csv?a=b",
		"Markýza – ./local/markyza.csv",
		"Bioklima = ./bio.xlsx#Ceník",
		"just some words",
		"   # indented comment",
		`"Quoted Name" = "https://example.com/q.csv"`,
	}, "\n")

	got, bad, err := ParseSources(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []Source{
		{Name: "Pergola Deluxe", Locator: "https://docs.google.com/spreadsheets/d/abc/edit#gid=0"},
		{Name: "Screen ZIP", Locator: "https://example.com/screen.csv?a=b"},
		{Name: "Markýza", Locator: "./local/markyza.csv"},
		{Name: "Bioklima", Locator: "./bio.xlsx#Ceník"},
		{Name: "Quoted Name", Locator: "https://example.com/q.csv"},
	}, got)
	require.Len(t, bad, 1)
	assert.Equal(t, 7, bad[0].Line)
	assert.Contains(t, bad[0].Error(), "just some words")
}

func TestParseSources_NameWithDashAndEquals(t *testing.T) {
	got, _, err := ParseSources(strings.NewReader("Screen - ZIP = https://example.com/zip.csv"))
	require.NoError(t, err)
	assert.Equal(t, []Source{{Name: "Screen - ZIP", Locator: "https://example.com/zip.csv"}}, got)
}

func TestParseSources_Empty(t *testing.T) {
	for _, in := range []string{"", "# only comments\n\n", "no separator here"} {
		_, _, err := ParseSources(strings.NewReader(in))
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, common.ErrSourceList)
		assert.Equal(t, common.CodeSourceList, common.CodeOf(err))
	}
}

func TestReadSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ceniky.txt")
	require.NoError(t, os.WriteFile(path, []byte("A = a.csv\nB - b.csv\n"), 0o644))

	got, bad, err := ReadSourceFile(path)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Len(t, got, 2)

	_, _, err = ReadSourceFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, common.ErrSourceList)
}
