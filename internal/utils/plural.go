package utils

import "fmt"

// Forms holds the Russian plural forms for 1, 2-4 and 5+ items.
type Forms struct {
	One, Few, Many string
}

// Pick returns the form matching n.
func (f Forms) Pick(n int) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%10 == 1 && n%100 != 11:
		return f.One
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 10 || n%100 >= 20):
		return f.Few
	default:
		return f.Many
	}
}

// Plural formats n followed by the matching form, e.g. "3 голоса".
func Plural(n int, forms Forms) string {
	return fmt.Sprintf("%d %s", n, forms.Pick(n))
}
