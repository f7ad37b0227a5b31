package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	xhttp "TrendCast/pkg/http"
	"TrendCast/pkg/util"
)

// HTTPSeriesStore reads prices from a remote price service:
//
//	GET {base}/instruments          -> ["GOLD", ...]
//	GET {base}/prices/{instrument}  -> {"prices": [{"date": "2024-01-31", "price": 1.0}, ...]}
type HTTPSeriesStore struct {
	baseURL string
	client  *xhttp.Client
}

type remotePrice struct {
	Date  string   `json:"date"`
	Price *float64 `json:"price"`
}

type remoteSeries struct {
	Prices []remotePrice `json:"prices"`
}

func NewHTTPSeriesStore(baseURL string, client *xhttp.Client) *HTTPSeriesStore {
	return &HTTPSeriesStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSeriesStore) FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error) {
	if s.client == nil || s.baseURL == "" {
		return nil, fmt.Errorf("price http client not initialized")
	}
	var body remoteSeries
	err := s.client.GetJSON(ctx, s.baseURL+"/prices/"+url.PathEscape(instrument), nil, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
		}
		return nil, fmt.Errorf("fetch series %s: %w", instrument, err)
	}

	out := make(models.PriceSeries, 0, len(body.Prices))
	for _, p := range body.Prices {
		if p.Price == nil {
			continue
		}
		t, ok := util.ParseTime(p.Date)
		if !ok {
			return nil, fmt.Errorf("fetch series %s: bad date %q", instrument, p.Date)
		}
		out = append(out, models.PricePoint{Date: t, Price: *p.Price})
	}
	slices.SortStableFunc(out, func(a, b models.PricePoint) int { return a.Date.Compare(b.Date) })
	out = domrepo.NormalizeSeries(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
	}
	return out, nil
}

func (s *HTTPSeriesStore) Instruments(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.client.GetJSON(ctx, s.baseURL+"/instruments", nil, &codes); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return codes, nil
}

var _ domrepo.SeriesRepository = (*HTTPSeriesStore)(nil)
