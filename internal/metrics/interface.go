package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
)

// Collector records appliance readings
type Collector interface {
	Record(ctx context.Context, readings appliance.Readings) error
	Close() error
}

// Repository stores snapshots
type Repository interface {
	Record(snapshot *Snapshot) error
	Recent(device string, limit int) ([]Snapshot, error)
	Close() error
}

// Reader lists stored snapshots
type Reader interface {
	Recent(device string, limit int) ([]Snapshot, error)
	Close() error
}

// Snapshot is one stored row of readings
type Snapshot struct {
	Timestamp   time.Time
	Device      string
	Temperature TempMetrics
	Energy      EnergyMetrics
	Power       PowerMetrics
}

type TempMetrics struct {
	Inside  appliance.Reading
	Outside appliance.Reading
	Target  appliance.Reading
}

type DayMetrics struct {
	Today     appliance.Reading
	Yesterday appliance.Reading
}

type EnergyMetrics struct {
	Total DayMetrics
	Cool  DayMetrics
	Heat  DayMetrics
}

type PowerMetrics struct {
	Total appliance.Reading
	Cool  appliance.Reading
	Heat  appliance.Reading
}

// NewSnapshot converts readings to their stored form
func NewSnapshot(r appliance.Readings) *Snapshot {
	day := func(cat appliance.Category) DayMetrics {
		e := r.Energy[cat]
		return DayMetrics{Today: e.Today, Yesterday: e.Yesterday}
	}

	return &Snapshot{
		Timestamp: r.Timestamp.Truncate(time.Second),
		Device:    r.Device,
		Temperature: TempMetrics{
			Inside:  r.InsideTemperature,
			Outside: r.OutsideTemperature,
			Target:  r.TargetTemperature,
		},
		Energy: EnergyMetrics{
			Total: day(appliance.Total),
			Cool:  day(appliance.Cool),
			Heat:  day(appliance.Heat),
		},
		Power: PowerMetrics{
			Total: r.TotalPower,
			Cool:  r.CoolPower,
			Heat:  r.HeatPower,
		},
	}
}
