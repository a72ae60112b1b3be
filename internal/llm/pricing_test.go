package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostForTokens(t *testing.T) {
	tests := []struct {
		tokens int
		want   float64
	}{
		{0, 0},
		{-5, 0},
		{1000, 0.002},
		{1500, 0.003},
		{150, 0.0003},
		{1, 0.000002},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, CostForTokens(tt.tokens), 1e-12, "tokens=%d", tt.tokens)
	}
}
