package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBar(t time.Time) Bar {
	return Bar{Open: 100, High: 105, Low: 98, Close: 103, Time: t, Volume: 5000}
}

func TestBarValidate(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*Bar)
		ok     bool
	}{
		{"valid", func(b *Bar) {}, true},
		{"zero volume ok", func(b *Bar) { b.Volume = 0 }, true},
		{"flat bar ok", func(b *Bar) { b.Open, b.High, b.Low, b.Close = 100, 100, 100, 100 }, true},
		{"nan close", func(b *Bar) { b.Close = math.NaN() }, false},
		{"inf high", func(b *Bar) { b.High = math.Inf(1) }, false},
		{"zero open", func(b *Bar) { b.Open = 0 }, false},
		{"negative low", func(b *Bar) { b.Low = -1 }, false},
		{"negative volume", func(b *Bar) { b.Volume = -1 }, false},
		{"high below low", func(b *Bar) { b.High, b.Low = 98, 105 }, false},
		{"high below close", func(b *Bar) { b.Close = 106 }, false},
		{"low above open", func(b *Bar) { b.Open = 97 }, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := validBar(ts)
			tc.mutate(&b)

			err := b.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var de *DataError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestDataErrorMessage(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	err := &DataError{Symbol: "AAA", Time: ts, Reason: "high below low"}
	assert.Contains(t, err.Error(), "AAA")
	assert.Contains(t, err.Error(), "high below low")
}
