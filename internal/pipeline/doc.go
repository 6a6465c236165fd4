// Package pipeline runs the tracking steps for each product.
//
// A run fetches the product page, extracts the price, compares it with the
// stored history and persists the observation. Each stage is a Step that
// receives the product's TrackReport and fills in its part.
//
// BatchProcessor runs one pipeline per product with bounded concurrency
// using errgroup, keeping results in configuration order.
package pipeline
