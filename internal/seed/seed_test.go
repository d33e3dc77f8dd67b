package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksSource(t *testing.T) {
	assert.Nil(t, New("  "))
	assert.IsType(t, FileSource{}, New("data.json"))
	assert.IsType(t, &HTTPSource{}, New("https://example.com/data.json"))
	assert.IsType(t, &HTTPSource{}, New("http://example.com/data.json"))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"love":[]}`), 0o600))

	raw, err := FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"love":[]}`, string(raw))

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"heist":[{"title":"Heat","year":"1995","rating":"8.3"}]}`))
	}))
	defer srv.Close()

	raw, err := NewHTTPSource(srv.URL + "/data.json").Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Heat")

	_, err = NewHTTPSource(srv.URL + "/nope.json").Fetch(context.Background())
	assert.ErrorContains(t, err, "404")
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url).Fetch(context.Background())
	assert.Error(t, err)
}
