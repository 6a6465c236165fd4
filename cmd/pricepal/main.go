// Package main provides the entry point for the PricePal CLI.
//
// PricePal fetches product pages, extracts prices, keeps a local price
// history and sends email reports when prices move.
//
// Usage:
//
//	pricepal init
//	pricepal track
//	pricepal watch --schedule "@every 1h"
//
// See --help for all available options.
package main

func main() {
	Execute()
}
