// Package verdict interprets scan outcomes.
//
// Parse turns a service payload into a model.Verdict. The Aggregator
// consumes the outcome stream of a scan, prints one line per outcome
// (honouring quiet mode), folds everything into a model.ScanReport, and
// decides the process exit code.
package verdict
