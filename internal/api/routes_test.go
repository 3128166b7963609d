package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pricetracker/internal/models"
)

// fakeReader records the arguments of the last repository call and
// returns canned samples.
type fakeReader struct {
	samples []models.PriceSample
	latest  *models.PriceSample

	gotInstrument string
	gotLimit      int
	gotOffset     int
	gotStart      *int64
	gotEnd        *int64
	rangeCalled   bool
}

func (f *fakeReader) ListByInstrument(_ context.Context, instrument string, limit, offset int) ([]models.PriceSample, error) {
	f.gotInstrument = instrument
	f.gotLimit = limit
	f.gotOffset = offset
	return f.samples, nil
}

func (f *fakeReader) LatestByInstrument(_ context.Context, instrument string) (*models.PriceSample, error) {
	f.gotInstrument = instrument
	return f.latest, nil
}

func (f *fakeReader) ListByInstrumentAndRange(_ context.Context, instrument string, start, end *int64) ([]models.PriceSample, error) {
	f.gotInstrument = instrument
	f.gotStart = start
	f.gotEnd = end
	f.rangeCalled = true
	return f.samples, nil
}

func sample(id int64, instrument string, price string, ts int64) models.PriceSample {
	return models.PriceSample{
		ID:         id,
		Instrument: instrument,
		Price:      decimal.RequireFromString(price),
		SampleTime: ts,
		RecordedAt: time.Unix(ts, 0).UTC(),
	}
}

func get(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// ---------- /api/prices/all ----------

func TestListAll_OK(t *testing.T) {
	fake := &fakeReader{samples: []models.PriceSample{
		sample(2, "BTC_USD", "45100.75", 1700000060),
		sample(1, "BTC_USD", "45000.50", 1700000000),
	}}
	s := &Server{prices: fake}

	rr := get(t, s.handleListAll, "/api/prices/all?instrument=btc_usd&limit=10&offset=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if fake.gotInstrument != "BTC_USD" {
		t.Fatalf("instrument not normalized: %q", fake.gotInstrument)
	}
	if fake.gotLimit != 10 || fake.gotOffset != 5 {
		t.Fatalf("limit/offset not forwarded: %d/%d", fake.gotLimit, fake.gotOffset)
	}

	var resp struct {
		Instrument string            `json:"instrument"`
		Count      int               `json:"count"`
		Samples    []json.RawMessage `json:"samples"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Instrument != "BTC_USD" || resp.Count != 2 || len(resp.Samples) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListAll_NoLimitMeansNoPagination(t *testing.T) {
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleListAll, "/api/prices/all?instrument=ETH_USD&offset=40")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fake.gotLimit != 0 {
		t.Fatalf("absent limit should reach the repository as 0, got %d", fake.gotLimit)
	}
}

func TestListAll_EmptyIsJSONArray(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	rr := get(t, s.handleListAll, "/api/prices/all?instrument=ETH_USD")
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["samples"]) != "[]" {
		t.Fatalf("expected empty array, got %s", resp["samples"])
	}
}

func TestListAll_InvalidInstrument(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	for _, q := range []string{"instrument=DOGE_USD", "instrument=", ""} {
		rr := get(t, s.handleListAll, "/api/prices/all?"+q)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestListAll_BadPagination(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	cases := []string{
		"limit=0", "limit=-1", "limit=1001", "limit=abc",
		"offset=-1", "offset=x",
	}
	for _, q := range cases {
		rr := get(t, s.handleListAll, "/api/prices/all?instrument=BTC_USD&"+q)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rr.Code)
		}
	}
}

// ---------- /api/prices/latest ----------

func TestLatest_OK(t *testing.T) {
	latest := sample(7, "BTC_USD", "45200.00", 1700000120)
	s := &Server{prices: &fakeReader{latest: &latest}}

	rr := get(t, s.handleLatest, "/api/prices/latest?instrument=btc_usd")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Instrument string              `json:"instrument"`
		Sample     *models.PriceSample `json:"sample"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sample == nil || resp.Sample.ID != 7 {
		t.Fatalf("unexpected sample: %+v", resp.Sample)
	}
	if !resp.Sample.Price.Equal(decimal.RequireFromString("45200.00")) {
		t.Fatalf("price mismatch: %s", resp.Sample.Price)
	}
}

func TestLatest_EmptyStoreIsNotAnError(t *testing.T) {
	s := &Server{prices: &fakeReader{latest: nil}}

	rr := get(t, s.handleLatest, "/api/prices/latest?instrument=ETH_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty store, got %d", rr.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["sample"]) != "null" {
		t.Fatalf("expected null sample, got %s", resp["sample"])
	}
}

func TestLatest_InvalidInstrument(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	rr := get(t, s.handleLatest, "/api/prices/latest?instrument=BTC")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ---------- /api/prices/filter ----------

func TestFilter_WholeDayWindow(t *testing.T) {
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleFilter, "/api/prices/filter?instrument=BTC_USD&date=1704067200")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fake.gotStart == nil || fake.gotEnd == nil {
		t.Fatal("expected both bounds set for date filter")
	}
	if *fake.gotStart != 1704067200 || *fake.gotEnd != 1704067200+86400 {
		t.Fatalf("unexpected window: [%d, %d]", *fake.gotStart, *fake.gotEnd)
	}
}

func TestFilter_EpochZeroDate(t *testing.T) {
	// date=0 is a real instant (1970-01-01), not "no filter": it still
	// gets its whole-day window.
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleFilter, "/api/prices/filter?instrument=BTC_USD&date=0")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fake.gotStart == nil || fake.gotEnd == nil {
		t.Fatal("expected both bounds set for date=0")
	}
	if *fake.gotStart != 0 || *fake.gotEnd != 86400 {
		t.Fatalf("unexpected window: [%d, %d]", *fake.gotStart, *fake.gotEnd)
	}
}

func TestFilter_DateTakesPrecedenceOverRange(t *testing.T) {
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleFilter,
		"/api/prices/filter?instrument=BTC_USD&date=1704067200&start_date=1&end_date=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if *fake.gotStart != 1704067200 {
		t.Fatalf("date should win over start_date, got start=%d", *fake.gotStart)
	}
}

func TestFilter_OpenEndedRange(t *testing.T) {
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleFilter, "/api/prices/filter?instrument=ETH_USD&start_date=1700000000")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fake.gotStart == nil || *fake.gotStart != 1700000000 {
		t.Fatal("start bound not forwarded")
	}
	if fake.gotEnd != nil {
		t.Fatal("end bound should be open")
	}

	// No bounds at all is also valid: full history.
	fake2 := &fakeReader{}
	s2 := &Server{prices: fake2}
	rr = get(t, s2.handleFilter, "/api/prices/filter?instrument=ETH_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !fake2.rangeCalled || fake2.gotStart != nil || fake2.gotEnd != nil {
		t.Fatal("expected open-ended range call")
	}
}

func TestFilter_ISODates(t *testing.T) {
	fake := &fakeReader{}
	s := &Server{prices: fake}

	rr := get(t, s.handleFilter,
		"/api/prices/filter?instrument=BTC_USD&start_date=2024-01-01T00:00:00Z&end_date=2024-01-02")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if *fake.gotStart != 1704067200 || *fake.gotEnd != 1704153600 {
		t.Fatalf("unexpected bounds: [%d, %d]", *fake.gotStart, *fake.gotEnd)
	}
}

func TestFilter_StartAfterEnd(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	rr := get(t, s.handleFilter,
		"/api/prices/filter?instrument=BTC_USD&start_date=1704067200&end_date=1704000000")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestFilter_UnparseableDate(t *testing.T) {
	s := &Server{prices: &fakeReader{}}

	for _, q := range []string{"date=tomorrow", "start_date=xx", "end_date=01/02/2024"} {
		rr := get(t, s.handleFilter, "/api/prices/filter?instrument=BTC_USD&"+q)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rr.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["error"] == "" {
			t.Fatal("expected the offending value to be named in the error")
		}
	}
}

// ---------- middleware ----------

func TestCorsMiddleware_Headers(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner, "https://dashboard.example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/prices/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Fatalf("expected custom origin, got %q", got)
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	handler := corsMiddleware(inner, "*")

	req := httptest.NewRequest(http.MethodOptions, "/api/prices/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rr.Code)
	}
}
