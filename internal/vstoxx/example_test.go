package vstoxx_test

import (
	"context"
	"fmt"
	"time"

	"vstoxxcli/internal/vstoxx"
)

func ExampleCalculator_Compute() {
	calc := vstoxx.NewCalculator(vstoxx.DefaultOptions(), nil)

	rows, err := calc.Compute(context.Background(), []vstoxx.InputRow{{
		Date: time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC),
		V6I1: vstoxx.Absent(),
		V6I2: vstoxx.Value(18.5),
		V6I3: vstoxx.Value(19.0),
		V2TX: vstoxx.Value(18.7),
	}})
	if err != nil {
		fmt.Println(err)
		return
	}

	r := rows[0]
	fmt.Println(r.SettlementDate1.Format(time.DateOnly), r.SettlementDate2.Format(time.DateOnly))
	fmt.Println(r.LifeTime1/86400, r.LifeTime2/86400, r.UseNear)
	fmt.Printf("%.4f\n", r.ComputedIndex)
	// Output:
	// 2014-01-17 2014-02-21
	// 15 50 false
	// 18.8585
}
