package api

import (
	"fmt"
	"net/http"
	"strconv"

	"pricetracker/internal/models"
)

const maxQueryLimit = 1000

// daySeconds is the width of the whole-day window applied when a
// single "date" argument is given.
const daySeconds = 86400

type listResponse struct {
	Instrument string               `json:"instrument"`
	Count      int                  `json:"count"`
	Samples    []models.PriceSample `json:"samples"`
}

type latestResponse struct {
	Instrument string              `json:"instrument"`
	Sample     *models.PriceSample `json:"sample"`
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	instrument, ok := requireInstrument(w, r)
	if !ok {
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.prices.ListByInstrument(r.Context(), instrument, limit, offset)
	if err != nil {
		fmt.Printf("[API] Error listing prices for %s: %v\n", instrument, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Instrument: instrument,
		Count:      len(samples),
		Samples:    nonNil(samples),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	instrument, ok := requireInstrument(w, r)
	if !ok {
		return
	}

	sample, err := s.prices.LatestByInstrument(r.Context(), instrument)
	if err != nil {
		fmt.Printf("[API] Error fetching latest price for %s: %v\n", instrument, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch latest price")
		return
	}

	// No samples yet is a valid empty response, not an error.
	writeJSON(w, http.StatusOK, latestResponse{
		Instrument: instrument,
		Sample:     sample,
	})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	instrument, ok := requireInstrument(w, r)
	if !ok {
		return
	}

	var start, end *int64
	q := r.URL.Query()

	if date := q.Get("date"); date != "" {
		// A single date means the whole day starting at the parsed
		// instant. It takes precedence over start_date/end_date.
		ts, err := parseTimestamp(date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		dayEnd := ts + daySeconds
		start, end = &ts, &dayEnd
	} else {
		if v := q.Get("start_date"); v != "" {
			ts, err := parseTimestamp(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			start = &ts
		}
		if v := q.Get("end_date"); v != "" {
			ts, err := parseTimestamp(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			end = &ts
		}
		if start != nil && end != nil && *start > *end {
			writeError(w, http.StatusBadRequest, "start_date must be less than or equal to end_date")
			return
		}
	}

	samples, err := s.prices.ListByInstrumentAndRange(r.Context(), instrument, start, end)
	if err != nil {
		fmt.Printf("[API] Error filtering prices for %s: %v\n", instrument, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Instrument: instrument,
		Count:      len(samples),
		Samples:    nonNil(samples),
	})
}

// --- parameter helpers ---

func requireInstrument(w http.ResponseWriter, r *http.Request) (string, bool) {
	instrument, err := models.NormalizeInstrument(r.URL.Query().Get("instrument"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return instrument, true
}

// parseLimit returns 0 when the parameter is absent, which the
// repository treats as "no pagination".
func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxQueryLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxQueryLimit)
	}
	return n, nil
}

func parseOffset(r *http.Request) (int, error) {
	v := r.URL.Query().Get("offset")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("offset must be a non-negative integer")
	}
	return n, nil
}

func nonNil(samples []models.PriceSample) []models.PriceSample {
	if samples == nil {
		return []models.PriceSample{}
	}
	return samples
}
