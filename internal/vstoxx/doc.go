// Package vstoxx recalculates the VSTOXX volatility index from its sub-indexes.
//
// The published index is a 30-day constant-maturity volatility. On each day it
// is interpolated in variance-time between two option-series sub-indexes whose
// settlement dates bracket (or, around expiry, approach) the 30-day horizon:
//
//	term1 = T1/Y * σ1² * (T2 - T30) / (T2 - T1)
//	term2 = T2/Y * σ2² * (T30 - T1) / (T2 - T1)
//	VSTOXX = sqrt((term1 + term2) * Y / T30)
//
// T1 and T2 are the life times in seconds to the current and next settlement
// dates (third Fridays, see package settlement), Y is one 365-day year and T30
// is 30 days. σ1 and σ2 are V6I1 and V6I2 when the near-term sub-index V6I1
// is available, otherwise V6I2 and V6I3.
//
// The deviation column compares the recomputed value with the published V2TX
// and is the main validation output:
//
//	calc := vstoxx.NewCalculator(vstoxx.DefaultOptions(), logger)
//	rows, err := calc.Compute(ctx, input)
//	if err != nil {
//	    return err
//	}
//	summary := vstoxx.Summarize(rows)
//
// Rows are independent. A Calculator with Options.Workers above one computes
// them concurrently and still returns them in input order.
package vstoxx
