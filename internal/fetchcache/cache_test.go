package fetchcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
)

func TestFetchCachesToDisk(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("hello pathway"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c, err := New(Config{Dir: dir, RateInterval: 0, MaxRetries: 2})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	text1, err := c.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello pathway", text1)

	text2, err := c.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello pathway", text2)

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "second fetch should be served from disk cache")
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Config{Dir: t.TempDir(), RateInterval: 0, MaxRetries: 3})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, pkerrors.NotFound, pkerrors.KindOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchExhaustedAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Config{Dir: t.TempDir(), RateInterval: 0, MaxRetries: 2})
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, err = c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, pkerrors.FetchExhausted, pkerrors.KindOf(err))
	assert.GreaterOrEqual(t, time.Since(start), 1*time.Second, "should have backed off at least once")
}

func TestFetchRecordsManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.db")
	c, err := New(Config{Dir: dir, RateInterval: 0, MaxRetries: 1, ManifestPath: manifestPath})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	records, err := c.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, srv.URL, records[0].URL)
	assert.Equal(t, 2, records[0].SizeBytes)
}

func TestWriteAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, writeAtomic(path, []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.txt", entries[0].Name())
}
