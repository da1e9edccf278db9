package ledger

import "github.com/shopspring/decimal"

// Token economy constants: 10 tokens = $1 everywhere (purchase, tips, cashout,
// personal conversion); cashout pays out 80% of the gross token value and
// requires a $20 balance before the request.
const TokensPerDollar = 10

var (
	tokensPerDollar = decimal.NewFromInt(TokensPerDollar)
	cashoutRate     = decimal.NewFromFloat(0.8)
	cashoutMinimum  = decimal.NewFromInt(20)
	minPurchaseUSD  = decimal.NewFromInt(1)
)

// TokensToUSD converts a token amount to its USD value at the fixed 10:1 rate
func TokensToUSD(tokens int64) decimal.Decimal {
	return decimal.NewFromInt(tokens).Div(tokensPerDollar)
}

// USDToTokens converts a USD amount to tokens, truncating fractional tokens
func USDToTokens(usd decimal.Decimal) int64 {
	return usd.Mul(tokensPerDollar).IntPart()
}

// Package is a purchasable token bundle offered at checkout
type Package struct {
	Amount decimal.Decimal `json:"amount"` // Price in USD
	Tokens int64           `json:"tokens"` // Tokens credited
}

// Packages lists the fixed token bundles, keyed by token count
var Packages = map[string]Package{
	"10":  {Amount: decimal.NewFromInt(1), Tokens: 10},
	"50":  {Amount: decimal.NewFromInt(5), Tokens: 50},
	"100": {Amount: decimal.NewFromInt(10), Tokens: 100},
	"250": {Amount: decimal.NewFromInt(25), Tokens: 250},
	"500": {Amount: decimal.NewFromInt(50), Tokens: 500},
}
