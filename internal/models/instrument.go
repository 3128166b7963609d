package models

import (
	"fmt"
	"sort"
	"strings"
)

// allowedInstruments is the fixed set of tracked symbols. Extending the
// service to a new index means adding it here (and to the deployment's
// INSTRUMENTS env var).
var allowedInstruments = map[string]bool{
	"BTC_USD": true,
	"ETH_USD": true,
}

// NormalizeInstrument upper-cases the symbol and checks it against the
// allowed set. Callers that hit storage must go through this first; the
// repository and store layers assume a pre-validated instrument.
func NormalizeInstrument(instrument string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(instrument))
	if !allowedInstruments[upper] {
		return "", fmt.Errorf("invalid instrument %q, must be one of %s",
			instrument, strings.Join(AllowedInstruments(), ", "))
	}
	return upper, nil
}

// AllowedInstruments returns the allowed symbols in stable order.
func AllowedInstruments() []string {
	out := make([]string, 0, len(allowedInstruments))
	for k := range allowedInstruments {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
