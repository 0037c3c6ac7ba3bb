package postgrest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regioniq/internal/store"
	"regioniq/pkg/platform/sentinel"
)

func sampleRequest() store.FetchRequest {
	return store.FetchRequest{
		Table:      "itl1_latest_all",
		Token:      "user-jwt",
		Regions:    []string{"E12000001", "E12000002"},
		Metrics:    []string{"population_total"},
		PeriodFrom: 2020,
		PeriodTo:   2022,
		DataTypes:  []string{"historical"},
		Offset:     0,
		Limit:      10000,
	}
}

func TestQuery(t *testing.T) {
	q := Query(sampleRequest())

	assert.Equal(t, "in.(E12000001,E12000002)", q.Get("region_code"))
	assert.Equal(t, "in.(population_total)", q.Get("metric_id"))
	assert.Equal(t, []string{"gte.2020", "lte.2022"}, q["period"])
	assert.Equal(t, "in.(historical)", q.Get("data_type"))
	assert.Equal(t, "metric_id.asc,region_code.asc,period.asc", q.Get("order"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "10000", q.Get("limit"))
	assert.Contains(t, q.Get("select"), "forecast_version")

	t.Run("explicit periods use membership", func(t *testing.T) {
		req := sampleRequest()
		req.Periods = []int{2020, 2024}
		req.DataTypes = nil
		q := Query(req)
		assert.Equal(t, []string{"in.(2020,2024)"}, q["period"])
		assert.False(t, q.Has("data_type"))
	})
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("", "anon")
	assert.ErrorIs(t, err, sentinel.ErrNotConfigured)

	_, err = New("https://x.supabase.co", " ")
	assert.ErrorIs(t, err, sentinel.ErrNotConfigured)
}

func TestFetch(t *testing.T) {
	t.Run("sends auth headers and decodes rows", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/v1/itl1_latest_all", r.URL.Path)
			assert.Equal(t, "anon", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer user-jwt", r.Header.Get("Authorization"))
			assert.Equal(t, "in.(population_total)", r.URL.Query().Get("metric_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"region_code":"E12000001","metric_id":"population_total","period":2020,"value":2680763,"ci_lower":null,"ci_upper":null,"data_type":"historical","unit":"people"}
			]`))
		}))
		defer srv.Close()

		c, err := New(srv.URL+"/", "anon")
		require.NoError(t, err)

		rows, err := c.Fetch(context.Background(), sampleRequest())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "E12000001", rows[0].RegionCode)
		assert.Equal(t, 2020, rows[0].Period)
		require.NotNil(t, rows[0].Value)
		assert.Equal(t, 2680763.0, *rows[0].Value)
		assert.Nil(t, rows[0].CILower)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream down`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "anon")
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Contains(t, err.Error(), "Supabase REST error 502")
	})

	t.Run("client error is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "anon")
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, sentinel.ErrRejected)
	})

	t.Run("timeout aborts the page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "anon", WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("timeout leaves a shared http client untouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		shared := &http.Client{Timeout: time.Minute}
		c, err := New(srv.URL, "anon", WithHTTPClient(shared), WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, time.Minute, shared.Timeout)
		assert.Same(t, shared, c.httpClient)
	})
}

func TestParseRowsRejectsGarbage(t *testing.T) {
	_, err := parseRows(http.StatusOK, []byte(`{not json`))
	assert.True(t, errors.Is(err, sentinel.ErrBadResponse))
}
