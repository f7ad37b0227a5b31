package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "TrendCast/internal/domain/repository"
	xhttp "TrendCast/pkg/http"
)

func TestHTTPSeriesStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/prices/GOLD", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[
			{"date":"2024-01-02","price":2},
			{"date":"2024-01-01","price":1},
			{"date":"2024-01-03","price":null}
		]}`))
	})
	mux.HandleFunc("/v1/instruments", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["GOLD","OIL"]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewHTTPSeriesStore(srv.URL+"/v1/", xhttp.NewClient())
	ctx := context.Background()

	s, err := store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Prices())

	codes, err := store.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GOLD", "OIL"}, codes)

	_, err = store.FetchSeries(ctx, "SILVER")
	assert.ErrorIs(t, err, domrepo.ErrInstrumentNotFound)
}
