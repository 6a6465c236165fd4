// Package model defines the data structures shared by the tracking pipeline,
// the price database and the report writers.
//
// This package contains the following main types:
//   - Product: a tracked product page and its price target
//   - Observation: one recorded price of a product
//   - TrackReport: the result of tracking one product in one run
//   - Summary: the aggregate of every TrackReport of a run
//
// Keeping these types in their own package lets pipeline, database and
// report share them without import cycles. They serialize to JSON for report
// output.
package model
