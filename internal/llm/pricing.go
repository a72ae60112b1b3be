package llm

import (
	"github.com/shopspring/decimal"
)

// CostPerThousandTokens is the blended unit price charged against the usage
// ledger, in USD per 1000 tokens.
var CostPerThousandTokens = decimal.RequireFromString("0.002")

var thousand = decimal.NewFromInt(1000)

// CostForTokens derives the dollar cost of a call from its total token
// count. Computed in decimal to keep ledger sums exact across many small
// increments.
func CostForTokens(tokensUsed int) float64 {
	if tokensUsed <= 0 {
		return 0
	}
	cost := decimal.NewFromInt(int64(tokensUsed)).Div(thousand).Mul(CostPerThousandTokens)
	return cost.InexactFloat64()
}
