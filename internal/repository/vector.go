package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeVector renders a pgvector text literal ("[0.1,0.2,...]") suitable for
// a ::vector cast. The corpus has no Go pgvector binding, so values travel as
// text the same way the store's raw SQL expects them.
func encodeVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector reads a pgvector text literal back into a float32 slice.
func parseVector(text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if strings.TrimSpace(trimmed) == "" {
		return []float32{}, nil
	}

	parts := strings.Split(trimmed, ",")
	vector := make([]float32, 0, len(parts))
	for _, part := range parts {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vector = append(vector, float32(parsed))
	}
	return vector, nil
}
