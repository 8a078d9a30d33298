package appliance

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
)

const (
	totalPowerWindow = 30 * time.Minute
	// one hour plus five minutes of tolerance for late hourly buckets
	lastHourWindow = 65 * time.Minute
)

// Appliance is the monitored state of one device. Update is the only
// mutation entry point; every accessor reads under a shared lock.
type Appliance struct {
	deviceID  string
	src       Source
	resources []string
	logger    logger.Logger
	now       func() time.Time

	mu      sync.RWMutex
	values  map[string]string
	history map[Category]*History
}

// Option configures an Appliance.
type Option func(*Appliance)

// WithLogger sets the logger used for extraction and anomaly reports.
func WithLogger(l logger.Logger) Option {
	return func(a *Appliance) {
		a.logger = l
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Appliance) {
		a.now = now
	}
}

// WithResources overrides DefaultResources. An empty list keeps the default.
func WithResources(resources ...string) Option {
	return func(a *Appliance) {
		if len(resources) > 0 {
			a.resources = resources
		}
	}
}

// New creates an Appliance with empty state. Nothing is fetched until
// Update is called.
func New(deviceID string, src Source, opts ...Option) *Appliance {
	a := &Appliance{
		deviceID:  deviceID,
		src:       src,
		resources: DefaultResources,
		logger:    logger.Default(),
		now:       time.Now,
		values:    make(map[string]string),
		history:   make(map[Category]*History, len(Categories)),
	}
	for _, cat := range Categories {
		a.history[cat] = &History{}
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("appliance")

	return a
}

// DeviceID returns the identifier the appliance was created with.
func (a *Appliance) DeviceID() string {
	return a.deviceID
}

// Update fetches every resource and, if all succeed, merges the result into
// the current values and records energy history. On failure nothing changes.
func (a *Appliance) Update(ctx context.Context) error {
	return a.UpdateResources(ctx, a.resources...)
}

// UpdateResources is Update restricted to the given resources.
func (a *Appliance) UpdateResources(ctx context.Context, resources ...string) error {
	errFactory := errors.New()

	if a.src == nil {
		return errFactory.New(ErrNoSource)
	}

	fetched := make(map[string]string)
	for _, resource := range resources {
		vals, err := a.src.Fetch(ctx, resource)
		if err != nil {
			return errFactory.Wrap(ErrUpdateFailed, err).WithMessage("fetch " + resource)
		}
		maps.Copy(fetched, vals)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	maps.Copy(a.values, fetched)
	a.record(a.now().UTC())

	a.logger.Debug().
		Str("device", a.deviceID).
		Int("resources", len(resources)).
		Int("fields", len(a.values)).
		Msg("Appliance state updated")

	return nil
}

// record must be called with mu held for writing.
func (a *Appliance) record(observedAt time.Time) {
	if !SupportsEnergyConsumption(a.values) {
		return
	}

	for _, cat := range Categories {
		today, yesterday, err := ExtractCounters(a.values, cat)
		if err != nil {
			var appErr errors.Error
			if errors.As(err, &appErr) {
				a.logger.Debug().
					Str("error_code", string(appErr.Code())).
					Str("category", cat.String()).
					Err(err).
					Msg("Skipping energy history update")
			}
			continue
		}

		added, err := a.history[cat].Add(EnergySnapshot{
			Timestamp: observedAt,
			Today:     today,
			Yesterday: yesterday,
		}, MaxHistoryAge)
		if err != nil {
			a.logger.Warn().Err(err).Str("category", cat.String()).Msg("Rejected energy snapshot")
			continue
		}
		if added {
			a.logger.Debug().
				Str("category", cat.String()).
				Int64("today", today).
				Int64("yesterday", yesterday).
				Int("history", a.history[cat].Len()).
				Msg("Recorded energy snapshot")
		}
	}
}

// Values returns a copy of the raw fields.
func (a *Appliance) Values() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.values)
}

// Value returns a single raw field.
func (a *Appliance) Value(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[name]
	return v, ok
}

// History returns a copy of a category's snapshots, newest first.
func (a *Appliance) History(cat Category) []EnergySnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.history[cat]
	if !ok {
		return nil
	}
	return h.Snapshots()
}

func (a *Appliance) SupportsEnergyConsumption() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return SupportsEnergyConsumption(a.values)
}

func (a *Appliance) SupportsAwayMode() bool {
	_, ok := a.Value("en_hol")
	return ok
}

func (a *Appliance) SupportsFanRate() bool {
	_, ok := a.Value("f_rate")
	return ok
}

func (a *Appliance) SupportsSwingMode() bool {
	_, ok := a.Value("f_dir")
	return ok
}

// SupportsOutsideTemperature is false for units without an outdoor sensor,
// which report a non-numeric otemp.
func (a *Appliance) SupportsOutsideTemperature() bool {
	_, ok := a.OutsideTemperature()
	return ok
}

func (a *Appliance) InsideTemperature() (float64, bool) {
	return a.temperature("htemp")
}

func (a *Appliance) OutsideTemperature() (float64, bool) {
	return a.temperature("otemp")
}

func (a *Appliance) TargetTemperature() (float64, bool) {
	return a.temperature("stemp")
}

func (a *Appliance) temperature(field string) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.temperatureLocked(field)
}

func (a *Appliance) temperatureLocked(field string) (float64, bool) {
	raw, ok := a.values[field]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MAC returns the reported MAC address as colon separated pairs.
func (a *Appliance) MAC() (string, bool) {
	raw, ok := a.Value("mac")
	if !ok {
		return "", false
	}
	return FormatMAC(raw), true
}

// FormatMAC inserts a colon between every two characters.
func FormatMAC(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(raw[i:min(i+2, len(raw))])
	}
	return b.String()
}

// TodayEnergy returns today's consumption of a category in kWh.
func (a *Appliance) TodayEnergy(cat Category) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.energy(cat, func(s EnergySnapshot) int64 { return s.Today })
}

// YesterdayEnergy returns yesterday's consumption of a category in kWh.
func (a *Appliance) YesterdayEnergy(cat Category) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.energy(cat, func(s EnergySnapshot) int64 { return s.Yesterday })
}

// energyAvailable reports whether the device currently reports energy and
// cat has recorded history. Callers hold mu.
func (a *Appliance) energyAvailable(cat Category) bool {
	h, ok := a.history[cat]
	return ok && h.Len() > 0 && SupportsEnergyConsumption(a.values)
}

func (a *Appliance) energy(cat Category, pick func(EnergySnapshot) int64) (float64, bool) {
	if !a.energyAvailable(cat) {
		return 0, false
	}
	s, ok := a.history[cat].Newest()
	if !ok {
		return 0, false
	}
	return float64(pick(s)) / cat.Scale(), true
}

// DeltaEnergy returns the kWh consumed by a category within window before
// now. An inconsistent history is logged and reported as zero.
func (a *Appliance) DeltaEnergy(cat Category, window time.Duration, earlyBreak bool) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deltaEnergy(cat, window, earlyBreak)
}

func (a *Appliance) deltaEnergy(cat Category, window time.Duration, earlyBreak bool) float64 {
	h, ok := a.history[cat]
	if !ok {
		return 0
	}

	raw, err := h.Delta(a.now().UTC(), window, earlyBreak)
	if err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			a.logger.ErrorWithCode(appErr).
				Str("device", a.deviceID).
				Str("category", cat.String()).
				Msg("Impossible energy consumption measure")
		}
		return 0
	}

	return float64(raw) / cat.Scale()
}

// CurrentTotalPower extrapolates the total consumption of the last 30
// minutes to kW.
func (a *Appliance) CurrentTotalPower() (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.totalPower()
}

func (a *Appliance) totalPower() (float64, bool) {
	if !a.energyAvailable(Total) {
		return 0, false
	}
	return a.deltaEnergy(Total, totalPowerWindow, false) * float64(time.Hour/totalPowerWindow), true
}

// LastHourCoolPower returns the cool consumption of the last hourly bucket.
func (a *Appliance) LastHourCoolPower() (float64, bool) {
	return a.lastHourPower(Cool)
}

// LastHourHeatPower returns the heat consumption of the last hourly bucket.
func (a *Appliance) LastHourHeatPower() (float64, bool) {
	return a.lastHourPower(Heat)
}

func (a *Appliance) lastHourPower(cat Category) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHourPowerLocked(cat)
}

func (a *Appliance) lastHourPowerLocked(cat Category) (float64, bool) {
	if !a.energyAvailable(cat) {
		return 0, false
	}
	return a.deltaEnergy(cat, lastHourWindow, true), true
}

// Readings collects every reported metric from a single consistent view of
// the state.
func (a *Appliance) Readings() Readings {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r := Readings{
		Timestamp: a.now().UTC(),
		Device:    a.deviceID,
		Energy:    make(map[Category]EnergyReading, len(Categories)),
	}

	r.InsideTemperature = reading(a.temperatureLocked("htemp"))
	r.OutsideTemperature = reading(a.temperatureLocked("otemp"))
	r.TargetTemperature = reading(a.temperatureLocked("stemp"))

	for _, cat := range Categories {
		r.Energy[cat] = EnergyReading{
			Today:     reading(a.energy(cat, func(s EnergySnapshot) int64 { return s.Today })),
			Yesterday: reading(a.energy(cat, func(s EnergySnapshot) int64 { return s.Yesterday })),
		}
	}

	r.TotalPower = reading(a.totalPower())
	r.CoolPower = reading(a.lastHourPowerLocked(Cool))
	r.HeatPower = reading(a.lastHourPowerLocked(Heat))

	return r
}

func reading(v float64, ok bool) Reading {
	return Reading{Value: v, Valid: ok}
}
