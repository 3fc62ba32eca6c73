package jobs

import (
	"testing"
	"time"
)

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{
			name: "zero",
			d:    0,
			want: "0 days, 0 hours, 0 minutes, and 0 seconds",
		},
		{
			name: "negative clamps to zero",
			d:    -5 * time.Second,
			want: "0 days, 0 hours, 0 minutes, and 0 seconds",
		},
		{
			name: "seconds only still lists every unit",
			d:    5 * time.Second,
			want: "0 days, 0 hours, 0 minutes, and 5 seconds",
		},
		{
			name: "singular units",
			d:    24*time.Hour + time.Hour + time.Minute + time.Second,
			want: "1 day, 1 hour, 1 minute, and 1 second",
		},
		{
			name: "mixed",
			d:    24*time.Hour + 3*time.Hour + 12*time.Second,
			want: "1 day, 3 hours, 0 minutes, and 12 seconds",
		},
		{
			name: "a full week",
			d:    7 * 24 * time.Hour,
			want: "7 days, 0 hours, 0 minutes, and 0 seconds",
		},
		{
			name: "sub-second rounds",
			d:    1500 * time.Millisecond,
			want: "0 days, 0 hours, 0 minutes, and 2 seconds",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HumanDuration(tc.d); got != tc.want {
				t.Errorf("HumanDuration(%s) = %q, want %q", tc.d, got, tc.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 17, 4, 5, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "09/03/2024 17:04:05" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}
