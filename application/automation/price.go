package automation

import (
	"regexp"
	"strconv"
	"strings"
)

var priceToken = regexp.MustCompile(`\d+[.,]?\d*`)

// ExtractPrice returns the first number found in text, or 0 if there is none.
// Only the first digits[.,]digits token is considered and a comma ends the
// number, so "Total: ₹1,234.50" yields 1 and "MRP 499.00 Total" yields 499.
func ExtractPrice(text string) float64 {
	token := priceToken.FindString(text)
	if token == "" {
		return 0
	}
	if i := strings.IndexByte(token, ','); i >= 0 {
		token = token[:i]
	}
	token = strings.TrimSuffix(token, ".")

	price, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return price
}
