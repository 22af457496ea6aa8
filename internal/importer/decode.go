package importer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var errNegativePrice = errors.New("negative price")

// decodeText decodes a raw export as UTF-8, falling back to Windows-1252
// when the bytes are not valid UTF-8 or already carry replacement
// characters. Spreadsheet exports from Windows are the common source of the
// latter, and the legacy feeds require bit-for-bit compatible handling.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) && !strings.ContainsRune(string(raw), utf8.RuneError) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// parsePrice parses a price cell after stripping currency symbols and
// normalizing the decimal separator. Legacy exports write "$1.234,56":
// dot-grouped thousands with a comma decimal separator.
func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	for _, sym := range []string{"$", "€", "£", " ", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, errNegativePrice
	}
	return price, nil
}
