package risk

// ratio divides num by den, returning 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
