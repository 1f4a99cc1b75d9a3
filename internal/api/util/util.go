package util

// ApplyConversion maps each model through the converter, returning the
// converted values in the same order. A nil slice yields an empty one.
func ApplyConversion[T any, K any](models []T, converter func(T) K) []K {
	dtos := make([]K, 0, len(models))
	for _, v := range models {
		dtos = append(dtos, converter(v))
	}

	return dtos
}
