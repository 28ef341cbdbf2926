package ratesd

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// registry maps 3-letter ISO codes to their display label and 1-character
// storage code. The set is fixed at deploy time; the storage codes must stay
// stable because they are the primary key of existing deployments.
var registry = map[string]CurrencyEntry{
	"USD": {ISO: "USD", Label: "Dollar américain", Code: "$"},
	"GBP": {ISO: "GBP", Label: "Livre sterling", Code: "L"},
	"JPY": {ISO: "JPY", Label: "Yen japonais", Code: "J"},
	"CHF": {ISO: "CHF", Label: "Franc suisse", Code: "0"},
	"CAD": {ISO: "CAD", Label: "Dollar canadien", Code: "C"},
	"AUD": {ISO: "AUD", Label: "Dollar australien", Code: "A"},
	"BGN": {ISO: "BGN", Label: "Lev bulgare", Code: "B"},
	"DKK": {ISO: "DKK", Label: "Couronne danoise", Code: "D"},
	"HUF": {ISO: "HUF", Label: "Forint hongrois", Code: "H"},
	"ILS": {ISO: "ILS", Label: "Nouveau shekel israélien", Code: "I"},
	"CZK": {ISO: "CZK", Label: "Couronne tchèque", Code: "K"},
	"NOK": {ISO: "NOK", Label: "Couronne norvégienne", Code: "N"},
	"RON": {ISO: "RON", Label: "Leu roumain", Code: "R"},
	"SEK": {ISO: "SEK", Label: "Couronne suédoise", Code: "S"},
	"TRY": {ISO: "TRY", Label: "Livre turque", Code: "T"},
	"CNY": {ISO: "CNY", Label: "Yuan chinois", Code: "Y"},
	"PLN": {ISO: "PLN", Label: "Zloty polonais", Code: "Z"},
	"ISK": {ISO: "ISK", Label: "Couronne islandaise", Code: "1"},
	"BRL": {ISO: "BRL", Label: "Réal brésilien", Code: "2"},
	"HKD": {ISO: "HKD", Label: "Dollar de Hong Kong", Code: "3"},
	"INR": {ISO: "INR", Label: "Roupie indienne", Code: "4"},
	"KRW": {ISO: "KRW", Label: "Won sud-coréen", Code: "5"},
	"MXN": {ISO: "MXN", Label: "Peso mexicain", Code: "6"},
	"MYR": {ISO: "MYR", Label: "Ringgit malaisien", Code: "7"},
	"PHP": {ISO: "PHP", Label: "Peso philippin", Code: "9"},
	"SGD": {ISO: "SGD", Label: "Dollar de Singapour", Code: "W"},
	"THB": {ISO: "THB", Label: "Baht thaïlandais", Code: "X"},
	"ZAR": {ISO: "ZAR", Label: "Rand sud-africain", Code: "P"},
	"IDR": {ISO: "IDR", Label: "Roupie indonésienne", Code: "Q"},
}

var isoPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Resolve normalizes iso (trimmed, upper-cased) and returns its registry
// entry. It fails with ErrInvalidISO when the input is not 3 letters and with
// ErrUnsupported when the currency has no registry entry.
func Resolve(iso string) (CurrencyEntry, error) {
	normalized := strings.ToUpper(strings.TrimSpace(iso))

	if !isoPattern.MatchString(normalized) {
		return CurrencyEntry{}, fmt.Errorf("%w: %q", ErrInvalidISO, iso)
	}

	entry, ok := registry[normalized]
	if !ok {
		return CurrencyEntry{}, fmt.Errorf("%w: %s", ErrUnsupported, normalized)
	}

	return entry, nil
}

// Supported returns all registered ISO codes in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(registry))

	for iso := range registry {
		codes = append(codes, iso)
	}

	sort.Strings(codes)

	return codes
}

// FilterLabels keeps only the symbols known to the registry. Labels come from
// the upstream symbol listing, not from the registry.
func FilterLabels(symbols map[string]string) map[string]string {
	out := make(map[string]string)

	for iso, label := range symbols {
		normalized := strings.ToUpper(iso)
		if _, ok := registry[normalized]; ok {
			out[normalized] = label
		}
	}

	return out
}
