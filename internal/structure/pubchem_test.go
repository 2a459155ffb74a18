package structure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPubChem(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, nil), &hits
}

func TestImageURL(t *testing.T) {
	c := NewClient("", 0, nil)
	assert.Equal(t,
		"https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/cid/2244/PNG?image_size=200x200",
		c.ImageURL(2244, 200))
	assert.Contains(t, c.ImageURL(2244, 0), "image_size=300x300")
}

func TestLookupFetchesAndCachesSDF(t *testing.T) {
	c, hits := newPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/compound/cid/2244/SDF", r.URL.Path)
		require.Equal(t, "3d", r.URL.Query().Get("record_type"))
		fmt.Fprint(w, "2244\n  -OEChem-\n$$$$\n")
	})

	s := c.Lookup(context.Background(), 2244)
	assert.True(t, s.Available)
	assert.Contains(t, s.SDF, "2244")
	assert.Empty(t, s.Fallback)

	_ = c.Lookup(context.Background(), 2244)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestLookupFallsBackWhenUnavailable(t *testing.T) {
	c, hits := newPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	s := c.Lookup(context.Background(), 999999999)
	assert.False(t, s.Available)
	assert.Equal(t, FallbackText, s.Fallback)
	assert.NotEmpty(t, s.ImageURL)

	// failures are not cached
	_ = c.Lookup(context.Background(), 999999999)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestResolveCID(t *testing.T) {
	c, _ := newPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compound/name/aspirin/cids/JSON" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"IdentifierList":{"CID":[2244]}}`)
	})

	cid, err := c.ResolveCID(context.Background(), "aspirin")
	require.NoError(t, err)
	assert.Equal(t, 2244, cid)

	_, err = c.ResolveCID(context.Background(), "unobtainium")
	assert.ErrorIs(t, err, ErrUnavailable)
}
