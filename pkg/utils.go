package pkg

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Converts a value suspected to be an integer of some width or a float64
// to an int64. Needed because json decodes all numbers as float64.
func NumToInt64(num any) int64 {
	switch num := num.(type) {
	case int:
		return int64(num)
	case int64:
		return num
	case float64:
		return int64(num)
	}
	return 0
}
