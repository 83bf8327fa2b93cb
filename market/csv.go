package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Accepted timestamp layouts for bar files. RFC3339 is what our own
// exporters write; the date-only form shows up in daily OHLCV dumps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads OHLCV bars from a CSV file with the header
// time,open,high,low,close,volume. The volume column may be omitted.
// Bars are returned in file order; NewSeries enforces ordering.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line++

		// Skip the header row.
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "time") {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("%s line %d: want at least 5 fields, got %d", path, line, len(rec))
		}

		ts, err := parseTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad price %q", path, line, rec[i+1])
			}
		}

		var volume float64
		if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
			volume, err = strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad volume %q", path, line, rec[5])
			}
		}

		bars = append(bars, Bar{
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Time:   ts,
			Volume: volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no bars", path)
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
