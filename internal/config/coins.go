package config

import "strings"

// coinAliases maps common tickers to the canonical lowercase identifiers the
// price API understands.
var coinAliases = map[string]string{
	"btc": "bitcoin",
	"xbt": "bitcoin",
	"eth": "ethereum",
}

// NormalizeCoin canonicalises a single coin identifier.
func NormalizeCoin(coin string) string {
	key := strings.ToLower(strings.TrimSpace(coin))
	if canonical, ok := coinAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeCoins canonicalises a coin list, dropping empty entries.
func NormalizeCoins(coins []string) []string {
	out := make([]string, 0, len(coins))
	for _, coin := range coins {
		if normalized := NormalizeCoin(coin); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
