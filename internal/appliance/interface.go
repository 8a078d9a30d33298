package appliance

import (
	"context"
	"time"
)

// Source fetches one resource from the appliance and returns its raw
// key/value fields.
type Source interface {
	Fetch(ctx context.Context, resource string) (map[string]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, resource string) (map[string]string, error)

func (f SourceFunc) Fetch(ctx context.Context, resource string) (map[string]string, error) {
	return f(ctx, resource)
}

// DefaultResources are polled on every refresh, in order. Later resources
// overwrite fields of earlier ones.
var DefaultResources = []string{
	"common/basic_info",
	"aircon/get_sensor_info",
	"aircon/get_control_info",
	"aircon/get_model_info",
	"aircon/get_day_power_ex",
	"aircon/get_week_power",
	"aircon/get_year_power",
}

// Reading is a reported value that may be unavailable.
type Reading struct {
	Value float64
	Valid bool
}

// EnergyReading holds the day counters of one category in kWh.
type EnergyReading struct {
	Today     Reading
	Yesterday Reading
}

// Readings is a point-in-time view of every reported metric.
type Readings struct {
	Timestamp          time.Time
	Device             string
	InsideTemperature  Reading
	OutsideTemperature Reading
	TargetTemperature  Reading
	Energy             map[Category]EnergyReading
	TotalPower         Reading
	CoolPower          Reading
	HeatPower          Reading
}
