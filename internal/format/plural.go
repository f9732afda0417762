package format

import "strconv"

// Plural picks one of [one, few, many] for n using the Slavic rule:
// 11-19 take "many", otherwise a last digit of 1 takes "one", 2-4 "few", the rest "many".
func Plural(n int, forms [3]string) string {
	if n < 0 {
		n = -n
	}
	x := n % 100
	y := x % 10
	switch {
	case x > 10 && x < 20:
		return forms[2]
	case y == 1:
		return forms[0]
	case y > 1 && y < 5:
		return forms[1]
	default:
		return forms[2]
	}
}

// PluralCount renders "n form", e.g. "5 сеансов".
func PluralCount(n int, forms [3]string) string {
	return strconv.Itoa(n) + " " + Plural(n, forms)
}
