package publisher

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
)

// Message is a single MQTT publication.
type Message struct {
	Topic   string
	Payload []byte
}

type energyPayload struct {
	Today     *float64 `json:"today,omitempty"`
	Yesterday *float64 `json:"yesterday,omitempty"`
}

type statePayload struct {
	Timestamp          string                   `json:"timestamp"`
	Device             string                   `json:"device"`
	InsideTemperature  *float64                 `json:"inside_temperature,omitempty"`
	OutsideTemperature *float64                 `json:"outside_temperature,omitempty"`
	TargetTemperature  *float64                 `json:"target_temperature,omitempty"`
	Energy             map[string]energyPayload `json:"energy,omitempty"`
	TotalPower         *float64                 `json:"total_power,omitempty"`
	CoolPower          *float64                 `json:"cool_power,omitempty"`
	HeatPower          *float64                 `json:"heat_power,omitempty"`
}

type metric struct {
	name    string
	reading appliance.Reading
}

// Messages builds the publications for one set of readings: a JSON state
// document on <prefix>/<device>/state and one plain value per available
// metric on <prefix>/<device>/<metric>.
func Messages(prefix string, r appliance.Readings) ([]Message, error) {
	base := strings.TrimSuffix(prefix, "/") + "/" + topicLevel(r.Device)

	state := statePayload{
		Timestamp:          r.Timestamp.UTC().Format(time.RFC3339),
		Device:             r.Device,
		InsideTemperature:  ptr(r.InsideTemperature),
		OutsideTemperature: ptr(r.OutsideTemperature),
		TargetTemperature:  ptr(r.TargetTemperature),
		TotalPower:         ptr(r.TotalPower),
		CoolPower:          ptr(r.CoolPower),
		HeatPower:          ptr(r.HeatPower),
	}

	values := []metric{
		{"inside_temperature", r.InsideTemperature},
		{"outside_temperature", r.OutsideTemperature},
		{"target_temperature", r.TargetTemperature},
		{"total_power", r.TotalPower},
		{"cool_power", r.CoolPower},
		{"heat_power", r.HeatPower},
	}

	for _, cat := range appliance.Categories {
		e, ok := r.Energy[cat]
		if !ok || (!e.Today.Valid && !e.Yesterday.Valid) {
			continue
		}
		if state.Energy == nil {
			state.Energy = make(map[string]energyPayload)
		}
		state.Energy[cat.String()] = energyPayload{
			Today:     ptr(e.Today),
			Yesterday: ptr(e.Yesterday),
		}
		values = append(values,
			metric{cat.String() + "_energy_today", e.Today},
			metric{cat.String() + "_energy_yesterday", e.Yesterday},
		)
	}

	body, err := json.Marshal(state)
	if err != nil {
		return nil, errors.New().Wrap(ErrEncode, err)
	}

	msgs := []Message{{Topic: base + "/state", Payload: body}}
	for _, v := range values {
		if !v.reading.Valid {
			continue
		}
		msgs = append(msgs, Message{
			Topic:   base + "/" + v.name,
			Payload: []byte(strconv.FormatFloat(v.reading.Value, 'f', -1, 64)),
		})
	}

	return msgs, nil
}

func ptr(r appliance.Reading) *float64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

// topicLevel makes s usable as a single topic level.
func topicLevel(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', ' ':
			return '_'
		}
		return r
	}, s)
}
