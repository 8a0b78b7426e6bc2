package exporter

import (
	"strconv"
	"time"

	"vstoxxcli/internal/vstoxx"
)

const dateLayout = "2006-01-02"

// formatFloat keeps full precision so results can be compared with the source data
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatReading leaves absent readings empty
func formatReading(r vstoxx.Reading) string {
	if !r.Present() {
		return ""
	}
	return formatFloat(r.Value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
