package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufefftitle,genres,runtime,overview,release_year,final_score,adult,cluster_id\n" +
	"Laugh Riot,\"['Comedy', 'Family']\",85,Funny,2001,7.5,False,1.0\n" +
	"Space Saga,Science Fiction|Adventure,150.0,Stars,1999.0,8.1,0,2\n" +
	"No Runtime,Drama,,Missing,2005,6.0,False,2\n" +
	"No Genres,,100,Empty,2005,6.0,False,2\n" +
	"Bad Adult,Drama,100,Odd,2005,6.0,maybe,2\n" +
	"Late Night,Comedy,95,Adult,2010,5.0,True,1\n"

func TestParseCatalogCSV(t *testing.T) {
	c, err := ParseCatalogCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len(), "缺值或非法的行被丢弃")
	assert.True(t, c.HasAdultFlag())
	assert.Equal(t, []string{"Adventure", "Comedy", "Family", "Science Fiction"}, c.GenreVocabulary())

	first := c.All()[0]
	assert.Equal(t, "Laugh Riot", first.Title)
	assert.Equal(t, []string{"comedy", "family"}, first.Genres)
	assert.Equal(t, "Comedy, Family", first.GenreText())
	assert.Equal(t, "1", first.ClusterID)
	assert.Equal(t, 2001, first.ReleaseYear)

	saga := c.All()[1]
	assert.Equal(t, 1999, saga.ReleaseYear)
	assert.False(t, saga.IsAdult)

	assert.True(t, c.All()[2].IsAdult)
}

func TestParseCatalogCSVWithoutAdultColumn(t *testing.T) {
	data := "title,genres,runtime,overview,release_year,final_score\n" +
		"Laugh Riot,Comedy,85,Funny,2001,7.5\n"
	c, err := ParseCatalogCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.False(t, c.HasAdultFlag())
	assert.Equal(t, 1, c.Len())
}

func TestParseCatalogCSVMissingColumn(t *testing.T) {
	data := "title,genres,overview,release_year,final_score\n" +
		"Laugh Riot,Comedy,Funny,2001,7.5\n"
	c, err := ParseCatalogCSV(strings.NewReader(data))
	require.ErrorIs(t, err, ErrCatalogLoad)
	assert.Contains(t, err.Error(), "runtime")
	require.NotNil(t, c)
	assert.Zero(t, c.Len())
}

func TestParseCatalogCSVNoValidRows(t *testing.T) {
	data := "title,genres,runtime,overview,release_year,final_score\n" +
		"Broken,Comedy,abc,Funny,2001,7.5\n"
	_, err := ParseCatalogCSV(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrCatalogLoad)
}

func TestLoadCatalogCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	c, err := LoadCatalogCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	c, err = LoadCatalogCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrCatalogLoad)
	require.NotNil(t, c)
	assert.Zero(t, c.Len())
}

func TestParseGenres(t *testing.T) {
	assert.Equal(t, []string{"Comedy", "Drama"}, parseGenres("['Comedy', 'Drama']"))
	assert.Equal(t, []string{"Comedy", "Drama"}, parseGenres("Comedy, Drama"))
	assert.Equal(t, []string{"Comedy", "Drama"}, parseGenres("Comedy|Drama"))
	assert.Empty(t, parseGenres("[]"))
}
