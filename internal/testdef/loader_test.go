package testdef

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"test/common/drill.json":       {Data: []byte(drillJSON)},
		"test/common/broken.json":      {Data: []byte(`{"questions":[{"text":"Q","options":{"a":"A"}}]}`)},
		"test/special/navigation.json": {Data: []byte(`{"questions":[{"text":"North?","options":{"a":"N"},"correct_answer":["a"]}]}`)},
		"test/special/notes.txt":       {Data: []byte("ignored")},
	}
}

func TestLoaderLoad(t *testing.T) {
	l := NewLoader(NewFSFetcher(testFS()))

	def, err := l.Load(context.Background(), Params{Category: "common", Subcategory: "drill"})
	require.NoError(t, err)
	assert.Len(t, def.Questions, 3)
	assert.Equal(t, "common", def.Category)
	assert.Equal(t, "drill", def.Subcategory)
}

func TestLoaderErrors(t *testing.T) {
	l := NewLoader(NewFSFetcher(testFS()))
	ctx := context.Background()

	_, err := l.Load(ctx, Params{Category: "common"})
	assert.True(t, errors.Is(err, ErrMissingParameters))

	_, err = l.Load(ctx, Params{Category: "..", Subcategory: "drill"})
	assert.True(t, errors.Is(err, ErrInvalidParameters))

	_, err = l.Load(ctx, Params{Category: "common", Subcategory: "missing"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, "test/common/missing.json", fe.Path)

	def, err := l.Load(ctx, Params{Category: "common", Subcategory: "broken"})
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Nil(t, def)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/site/test/common/drill.json" {
			_, _ = w.Write([]byte(drillJSON))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	l := NewLoader(NewHTTPFetcher(srv.URL+"/site/", srv.Client()))

	def, err := l.Load(context.Background(), Params{Category: "common", Subcategory: "drill"})
	require.NoError(t, err)
	assert.Equal(t, "Drill Basics", def.Title)

	_, err = l.Load(context.Background(), Params{Category: "common", Subcategory: "other"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.Status)
}

func TestCatalogList(t *testing.T) {
	c := NewCatalog(NewFSFetcher(testFS()))

	cats, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)

	assert.Equal(t, "common", cats[0].Category)
	assert.Equal(t, "Common Training", cats[0].Name)
	require.Len(t, cats[0].Tests, 2)
	assert.Equal(t, "broken", cats[0].Tests[0].Subcategory)
	assert.Equal(t, "Drill", cats[0].Tests[1].Name)

	require.Len(t, cats[1].Tests, 1)
	assert.Equal(t, "Navigation", cats[1].Tests[0].Name)
	assert.Empty(t, cats[2].Tests)
}

func TestCatalogWithoutLister(t *testing.T) {
	c := NewCatalog(NewHTTPFetcher("http://example.invalid", nil))

	cats, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}
