package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zbozi/categories/internal/domain"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCategoryIDsFilters(t *testing.T) {
	input := `CATEGORY,SOURCE,COUNTRY
123,zbozi,CZ
123,other,CZ
456,zbozi,SK
abc,zbozi,CZ
789,zbozi,CZ
789,zbozi,CZ
,zbozi,CZ
12a,zbozi,CZ
`
	ids, err := readCategoryIDs(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("123", "789"), ids)
}

func TestReadCategoryIDsDefaultsWhenColumnsAbsent(t *testing.T) {
	ids, err := readCategoryIDs(context.Background(), strings.NewReader("CATEGORY\n123\nabc\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("123"), ids)
}

func TestReadCategoryIDsSourceOnly(t *testing.T) {
	input := "NAME,CATEGORY,SOURCE\nx,1,zbozi\ny,2,heureka\n"
	ids, err := readCategoryIDs(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("1"), ids)
}

func TestReadCategoryIDsShortRows(t *testing.T) {
	input := "CATEGORY,SOURCE,COUNTRY\n1,zbozi\n2,zbozi,CZ\n3\n"
	ids, err := readCategoryIDs(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("2"), ids)
}

func TestReadCategoryIDsCanonicalizes(t *testing.T) {
	ids, err := readCategoryIDs(context.Background(), strings.NewReader("CATEGORY\n007\n7\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("7"), ids)
}

func TestReadCategoryIDsByteOrderMark(t *testing.T) {
	ids, err := readCategoryIDs(context.Background(), strings.NewReader("\ufeffCATEGORY\n5\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.NewIDSet("5"), ids)
}

func TestReadCategoryIDsEmpty(t *testing.T) {
	ids, err := readCategoryIDs(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len())

	ids, err = readCategoryIDs(context.Background(), strings.NewReader("CATEGORY,SOURCE\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len())
}

func TestReadCategoryIDsMissingColumn(t *testing.T) {
	_, err := readCategoryIDs(context.Background(), strings.NewReader("ID,SOURCE\n1,zbozi\n"))
	assert.ErrorContains(t, err, "CATEGORY")
}

func TestFileResolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.csv")
	require.NoError(t, os.WriteFile(path, []byte("CATEGORY,COUNTRY\n10,CZ\n11,DE\n"), 0o644))

	logger, hook := test.NewNullLogger()
	ids, err := NewFileResolver(path, logger).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.NewIDSet("10"), ids)
	assert.Contains(t, hook.LastEntry().Message, "Found 1 unique categories")
}

func TestFileResolverMissingFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewFileResolver(filepath.Join(t.TempDir(), "nope.csv"), logger).Resolve(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
