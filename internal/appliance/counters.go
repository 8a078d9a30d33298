package appliance

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/daikinctl/internal/errors"
)

// Raw field names reported by the appliance.
const (
	FieldWeekTotal     = "datas"
	FieldTodayCool     = "curr_day_cool"
	FieldYesterdayCool = "prev_1day_cool"
	FieldTodayHeat     = "curr_day_heat"
	FieldYesterdayHeat = "prev_1day_heat"
	FieldPreviousYear  = "previous_year"
	FieldThisYear      = "this_year"
)

type counterFields struct {
	today     string
	yesterday string
}

var energyFields = map[Category]counterFields{
	Total: {today: FieldWeekTotal, yesterday: FieldWeekTotal},
	Cool:  {today: FieldTodayCool, yesterday: FieldYesterdayCool},
	Heat:  {today: FieldTodayHeat, yesterday: FieldYesterdayHeat},
}

// ExtractionFailure is attached to extraction errors as data.
type ExtractionFailure struct {
	Category Category
	Field    string
}

// ExtractCounters returns the raw today/yesterday counters of a category.
//
// The total counters come from a single per-day list where the last
// element is today and the one before it is yesterday. Cool and heat are
// reported as hourly buckets in two separate fields, each summed.
func ExtractCounters(values map[string]string, cat Category) (today, yesterday int64, err error) {
	fields, ok := energyFields[cat]
	if !ok {
		return 0, 0, errors.New().WithData(ErrUnknownCategory, cat)
	}

	if cat == Total {
		days, err := parseCounterList(values, cat, fields.today)
		if err != nil {
			return 0, 0, err
		}
		if len(days) < 2 {
			return 0, 0, errors.New().WithData(ErrExtraction, ExtractionFailure{Category: cat, Field: fields.today})
		}
		return days[len(days)-1], days[len(days)-2], nil
	}

	todayBuckets, err := parseCounterList(values, cat, fields.today)
	if err != nil {
		return 0, 0, err
	}
	yesterdayBuckets, err := parseCounterList(values, cat, fields.yesterday)
	if err != nil {
		return 0, 0, err
	}

	return sum(todayBuckets), sum(yesterdayBuckets), nil
}

// SupportsEnergyConsumption reports whether the yearly counters show any
// consumption at all. Missing or empty yearly fields count as zero.
func SupportsEnergyConsumption(values map[string]string) bool {
	var total int64
	for _, field := range []string{FieldPreviousYear, FieldThisYear} {
		raw := values[field]
		if raw == "" {
			continue
		}
		for _, part := range strings.Split(raw, "/") {
			n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return false
			}
			total += n
		}
	}

	return total > 0
}

func parseCounterList(values map[string]string, cat Category, field string) ([]int64, error) {
	errFactory := errors.New()
	failure := ExtractionFailure{Category: cat, Field: field}

	raw, ok := values[field]
	if !ok {
		return nil, errFactory.WithData(ErrExtraction, failure)
	}

	parts := strings.Split(raw, "/")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errFactory.Wrap(ErrExtraction, err).WithData(failure)
		}
		out = append(out, n)
	}

	return out, nil
}

func sum(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}
