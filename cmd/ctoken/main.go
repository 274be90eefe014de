// ctoken counts tokens and estimates the cost of OpenAI API calls.
//
// Usage:
//
//	# Count tokens in a string or a messages file
//	ctoken count "Hello, world"
//	ctoken count --file messages.json --model gpt-4o
//
//	# Price explicit token counts, or estimate a request before sending it
//	ctoken estimate --model gpt-4o --input-tokens 1200 --output-tokens 300
//	ctoken estimate --model gpt-4o --messages-file messages.json --max-tokens 500
//
//	# Price a saved response or a streamed (SSE) response
//	ctoken calc response.json
//	curl ... | ctoken calc --sse -
//
//	# Inspect and maintain the price table
//	ctoken resolve gpt-4o-mini-2024-07-18
//	ctoken pricing list --format csv
//	ctoken pricing refresh --write-csv data/prices.csv
//
//	# Run the HTTP API with scheduled refresh, metrics and health checks
//	ctoken serve --config ctoken.yaml
package main

func main() {
	Execute()
}
