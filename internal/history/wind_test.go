package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestWindFetcherMerges(t *testing.T) {
	srv := windServer(t, map[string]string{
		"/wdata.json":    `{"wspeed":[[1000,5.04],[2000,6.0],[3000,7.0],[4000,8.0]],"wgust":[[1000,9]]}`,
		"/wdirdata.json": `{"avgbearing":[[1000,180],[3000,200],[4000,210]]}`,
	})

	w := NewWindFetcher(srv.URL)
	w.SetDelay(0)

	barbs, err := w.Fetch(context.Background(), time.UnixMilli(1000), time.UnixMilli(4000))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1000, 5, 180}, {3000, 7, 200}}, barbs)
}

func TestWindFetcherErrors(t *testing.T) {
	srv := windServer(t, map[string]string{
		"/wdata.json": `not json`,
	})
	w := NewWindFetcher(srv.URL)
	w.SetDelay(0)

	_, err := w.Fetch(context.Background(), time.UnixMilli(0), time.UnixMilli(1))
	assert.ErrorContains(t, err, "not valid JSON")

	srv2 := windServer(t, map[string]string{"/wdata.json": `{"wspeed":[]}`})
	w2 := NewWindFetcher(srv2.URL)
	w2.SetDelay(0)
	_, err = w2.Fetch(context.Background(), time.UnixMilli(0), time.UnixMilli(1))
	assert.ErrorContains(t, err, "status 404")
}

func TestWindFetcherDelayHonoursContext(t *testing.T) {
	w := NewWindFetcher("http://127.0.0.1:1")
	w.SetDelay(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Fetch(ctx, time.Now(), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmitMergesWind(t *testing.T) {
	f := newFixture(t)
	end := time.Date(2024, 6, 15, 13, 20, 0, 0, time.UTC).UnixMilli()
	in := end - 600000

	srv := windServer(t, map[string]string{
		"/wdata.json":    `{"wspeed":[[` + itoa(in) + `,12.34],[` + itoa(end) + `,1]]}`,
		"/wdirdata.json": `{"avgbearing":[[` + itoa(in) + `,90],[` + itoa(end) + `,91]]}`,
	})
	f.emitter.wind = NewWindFetcher(srv.URL)
	f.emitter.wind.SetDelay(0)

	res, err := f.emitter.Emit(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"CUserdataRECENT.json"}, res.Files)

	snap := f.snapshot(t, "CUserdataRECENT.json")
	assert.Equal(t, [][]float64{{float64(in), 12.3, 90}}, snap[WindBarbsKey])
}
