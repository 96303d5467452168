package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	testHeader = []string{"listing_id", "city", "price"}
	testRows   = [][]string{
		{"4-1_2026-03-14", "Vilnius", "450 €"},
		{"4-2_2026-03-14", "Kaunas", ""},
	}
)

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(testHeader, testRows))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, testHeader, got[0])
	assert.Equal(t, testRows, got[1:])
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	w, err := NewXLSXWriter(path, "listings")
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(testHeader, testRows))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("listings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testHeader, rows[0])
	assert.Equal(t, testRows[0], rows[1])
	// Trailing empty cells are trimmed by GetRows.
	assert.Equal(t, []string{"4-2_2026-03-14", "Kaunas"}, rows[2])
}
