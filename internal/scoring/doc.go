// Package scoring computes the weighted desirability score used to rank
// candidate clips. Every axis is normalized to [0,1] before weighting so
// scores stay stable under reweighting; the final score is an integer in
// [0,100]. Scoring is a total, side-effect-free computation.
package scoring
