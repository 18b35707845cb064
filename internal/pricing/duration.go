package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cdr-reconciler/pkg/logger"
)

var ErrInvalidDuration = errors.New("pricing: invalid call duration")

// RoundUpMinutes converts an exported call duration to whole billable minutes,
// rounding any started minute up.
//
//   - "H:M:S" gives H*60 + M + ceil(S/60)
//   - a plain integer is seconds and gives ceil(seconds/60)
func RoundUpMinutes(duration string) (int, error) {
	if strings.Contains(duration, ":") {
		h, m, s, err := splitHMS(duration)
		if err != nil {
			return 0, err
		}
		return h*60 + m + ceilDiv(s, 60), nil
	}
	sec, err := strconv.Atoi(strings.TrimSpace(duration))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
	}
	return ceilDiv(sec, 60), nil
}

// RoundUpDuration is RoundUpMinutes for output rows: a malformed duration is logged
// and counts as zero so one bad row never aborts a batch.
func RoundUpDuration(ctx context.Context, duration string) int {
	m, err := RoundUpMinutes(duration)
	if err != nil {
		logger.From(ctx).Warn("call duration not parsed", "duration", duration, "err", err)
		return 0
	}
	return m
}

// DurationSeconds converts an exported call duration to seconds.
func DurationSeconds(duration string) (int, error) {
	if strings.Contains(duration, ":") {
		h, m, s, err := splitHMS(duration)
		if err != nil {
			return 0, err
		}
		return h*3600 + m*60 + s, nil
	}
	sec, err := strconv.Atoi(strings.TrimSpace(duration))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
	}
	return sec, nil
}

func splitHMS(duration string) (h, m, s int, err error) {
	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
	}
	var vals [3]int
	for i, p := range parts {
		v, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}

// ceilDiv rounds a/b towards positive infinity (b > 0).
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}
