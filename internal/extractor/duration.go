package extractor

import (
	"fmt"
	"time"

	"resume-analyzer-go/internal/types"
)

// ComputeDuration 计算日期区间的时长：月数 = (结束年-开始年)*12 + (结束月-开始月)
// Present 取now所在月份；任一端无法解析或结束早于开始时返回0时长和 ErrUnparseableDateRange
func ComputeDuration(r types.DateRange, now time.Time) (types.Duration, error) {
	sy, sm, ok := resolveMarker(r.Start, now)
	if !ok {
		return types.Duration{}, fmt.Errorf("%w: 开始日期 %q", ErrUnparseableDateRange, r.Start.Raw)
	}
	ey, em, ok := resolveMarker(r.End, now)
	if !ok {
		return types.Duration{}, fmt.Errorf("%w: 结束日期 %q", ErrUnparseableDateRange, r.End.Raw)
	}

	months := (ey-sy)*12 + (em - sm)
	if months < 0 {
		return types.Duration{}, fmt.Errorf("%w: 结束早于开始 (%s)", ErrUnparseableDateRange, r)
	}
	return types.DurationFromMonths(months), nil
}

func resolveMarker(m types.DateMarker, now time.Time) (year, month int, ok bool) {
	if m.Present {
		return now.Year(), int(now.Month()), true
	}
	if !m.Resolved() {
		return 0, 0, false
	}
	return m.Year, m.Month, true
}

// sumDurations 汇总多段时长，重叠区间不去重
func sumDurations(durations []types.Duration) types.Duration {
	total := 0
	for _, d := range durations {
		total += d.TotalMonths()
	}
	return types.DurationFromMonths(total)
}
