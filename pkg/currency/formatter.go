package currency

import (
	"fmt"
	"math"
	"strings"
)

type style struct {
	decimals  int
	thousands string
	decimal   string
}

var styles = map[string]style{
	"IDR": {decimals: 0, thousands: ".", decimal: ","},
	"JPY": {decimals: 0, thousands: ",", decimal: "."},
	"KRW": {decimals: 0, thousands: ",", decimal: "."},
	"EUR": {decimals: 2, thousands: ".", decimal: ","},
}

var defaultStyle = style{decimals: 2, thousands: ",", decimal: "."}

// Format renders amount as "<CODE> <amount>" using the grouping and precision
// customary for the currency.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	st, ok := styles[code]
	if !ok {
		st = defaultStyle
	}

	scale := math.Pow10(st.decimals)
	rounded := math.Round(amount*scale) / scale

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	s := fmt.Sprintf("%.*f", st.decimals, rounded)
	intPart, fracPart, _ := strings.Cut(s, ".")
	formatted := addThousandsSeparator(intPart, st.thousands)
	if st.decimals > 0 {
		formatted += st.decimal + fracPart
	}

	result := code + " " + formatted
	if negative {
		result = "-" + result
	}
	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
