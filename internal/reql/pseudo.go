package reql

import (
	"encoding/base64"
	"fmt"
	"time"
)

const reqlTypeKey = "$reql_type$"

// timeDatum builds the $reql_type$ TIME pseudo-datum wire representation for t.
func timeDatum(t time.Time) map[string]interface{} {
	_, offset := t.Zone()
	return map[string]interface{}{
		reqlTypeKey: "TIME",
		"epoch_time": float64(t.UnixNano()) / 1e9,
		"timezone":   formatOffset(offset),
	}
}

// binaryDatum builds the $reql_type$ BINARY pseudo-datum wire representation for b.
func binaryDatum(b []byte) map[string]interface{} {
	return map[string]interface{}{
		reqlTypeKey: "BINARY",
		"data":      base64.StdEncoding.EncodeToString(b),
	}
}

// formatOffset renders a UTC offset in seconds as "+HH:MM"/"-HH:MM".
func formatOffset(offsetSeconds int) string {
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, hours, minutes)
}
