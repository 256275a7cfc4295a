package ocr

const extractionPrompt = `You are analyzing a screenshot of options positions from a trading platform (likely Charles Schwab).

Extract ALL options positions visible in the image. For each position, return:
- symbol: the underlying stock ticker (e.g., "AAPL")
- optionType: "call" or "put"
- strike: the strike price (number)
- expiration: expiration date in YYYY-MM-DD format
- premium: the price/cost per contract (number)
- quantity: number of contracts (positive for long, negative for short/written)
- currentPrice: current option price if visible, otherwise use premium
- underlyingPrice: current underlying stock price if visible, otherwise estimate from strike

Return ONLY a valid JSON array. Example:
[
  {
    "symbol": "AAPL",
    "optionType": "call",
    "strike": 200,
    "expiration": "2026-03-21",
    "premium": 5.50,
    "quantity": 2,
    "currentPrice": 6.20,
    "underlyingPrice": 203.50
  }
]

If you cannot extract positions or the image is not an options view, return an empty array: []`
