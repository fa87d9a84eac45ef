package utils_test

import (
	"testing"
	"time"

	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr error
	}{
		{name: "days", input: "30d", want: 30 * utils.Day},
		{name: "hours", input: "2h", want: 2 * time.Hour},
		{name: "minutes", input: "15m", want: 15 * time.Minute},
		{name: "months", input: "1mo", want: 30 * utils.Day},
		{name: "years", input: "1y", want: 365 * utils.Day},
		{name: "weeks", input: "2w", want: 14 * utils.Day},
		{name: "bare seconds", input: "45", want: 45 * time.Second},
		{name: "combined", input: "1w 2d 3h", want: 9*utils.Day + 3*time.Hour},
		{name: "spelled out", input: "3 days, 4 hours", want: 3*utils.Day + 4*time.Hour},
		{name: "case insensitive", input: "1D 2H", want: utils.Day + 2*time.Hour},
		{name: "minutes word is not months", input: "5min", want: 5 * time.Minute},
		{name: "empty", input: "", wantErr: utils.ErrEmptyDuration},
		{name: "garbage", input: "abc", wantErr: utils.ErrInvalidDuration},
		{name: "wrong order", input: "1h 1d", wantErr: utils.ErrInvalidDuration},
		{name: "zero", input: "0", wantErr: utils.ErrNonPositiveDuration},
		{name: "zero days", input: "0d", wantErr: utils.ErrNonPositiveDuration},
		{name: "overflow", input: "99999999999999y", wantErr: utils.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := utils.ParseDuration(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "sub second", in: 500 * time.Millisecond, want: "less than a second"},
		{name: "one second", in: time.Second, want: "1 second"},
		{name: "singular and plural", in: utils.Day + 2*time.Hour, want: "1 day, 2 hours"},
		{name: "all units", in: 2*utils.Day + time.Hour + 3*time.Minute + 4*time.Second, want: "2 days, 1 hour, 3 minutes, 4 seconds"},
		{name: "trailing millis ignored", in: utils.Day + 500*time.Millisecond, want: "1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.FormatDuration(tt.in))
		})
	}
}

func TestFormatCompact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "sub second", in: time.Millisecond, want: "0s"},
		{name: "days hours minutes", in: utils.Day + 6*time.Hour + 30*time.Minute, want: "1d 6h 30m"},
		{name: "keeps zero hours between", in: utils.Day + 30*time.Minute, want: "1d 0h 30m"},
		{name: "only seconds", in: 42 * time.Second, want: "42s"},
		{name: "hours and seconds", in: time.Hour + 5*time.Second, want: "1h 0m 5s"},
		{name: "exact day", in: utils.Day, want: "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.FormatCompact(tt.in))
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Expired", utils.FormatRemaining(0))
	assert.Equal(t, "Expired", utils.FormatRemaining(-time.Minute))
	assert.Equal(t, "5 minutes", utils.FormatRemaining(5*time.Minute))
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 7, 9, 5, 1, 0, time.UTC)
	assert.Equal(t, "07/03/2024 09:05:01", utils.FormatTimestamp(ts))
}
