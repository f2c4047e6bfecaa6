package llm

// costPerToken stores per-1K-token pricing for the direct-endpoint models.
// Prices in USD per 1K tokens: [input, output].
var costPerToken = map[string][2]float64{
	"gpt-3.5-turbo":           {0.0005, 0.0015},
	"gpt-4o-mini":             {0.00015, 0.0006},
	"claude-3-haiku-20240307": {0.00025, 0.00125},
}

func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := costPerToken[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1000.0 * prices[0]
	outputCost := float64(outputTokens) / 1000.0 * prices[1]
	return inputCost + outputCost
}
