// Package switchback implements time-block randomization: timestamps are
// floored to fixed-length periods and the two arms alternate across
// periods, starting from a seeded coin flip. The labeled output analyzes
// like any other experiment dataset, with the period as the randomization
// unit.
package switchback

import (
	"math/rand"
	"sort"
	"time"

	"abx/domain/core"
	"abx/domain/experiment"
)

// PeriodAssignment maps one period block to its arm.
type PeriodAssignment struct {
	PeriodStart time.Time        `json:"period_start"`
	Group       experiment.Group `json:"group"`
}

// Event is a raw observation to be labeled with its period's arm.
type Event struct {
	Timestamp time.Time
	Metric    float64
}

// LabeledEvent is an event joined to its period assignment. Events that
// precede the first period keep a zero PeriodStart and an empty Group.
type LabeledEvent struct {
	Event
	PeriodStart time.Time
	Group       experiment.Group
}

// AssignPeriods floors the given timestamps to period-length blocks and
// assigns alternating arms, with the starting arm drawn from the seeded
// generator. The assignment is deterministic for a fixed seed.
func AssignPeriods(timestamps []time.Time, period time.Duration, seed int64) ([]PeriodAssignment, error) {
	if period <= 0 {
		return nil, core.InvalidCountError("period length must be positive, got %v", period)
	}
	if len(timestamps) == 0 {
		return []PeriodAssignment{}, nil
	}

	blocks := make(map[time.Time]struct{})
	for _, ts := range timestamps {
		blocks[ts.Truncate(period)] = struct{}{}
	}
	starts := make([]time.Time, 0, len(blocks))
	for b := range blocks {
		starts = append(starts, b)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	arms := [2]experiment.Group{experiment.GroupControl, experiment.GroupTreatment}
	rng := rand.New(rand.NewSource(seed))
	first := rng.Intn(2)

	out := make([]PeriodAssignment, len(starts))
	for i, start := range starts {
		out[i] = PeriodAssignment{PeriodStart: start, Group: arms[(first+i)%2]}
	}
	return out, nil
}

// LabelEvents joins each event to the most recent period starting at or
// before its timestamp (a backward as-of join). Events before the first
// period are returned unlabeled rather than dropped.
func LabelEvents(events []Event, assignment []PeriodAssignment) ([]LabeledEvent, error) {
	sorted := append([]PeriodAssignment(nil), assignment...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeriodStart.Before(sorted[j].PeriodStart) })

	out := make([]LabeledEvent, len(events))
	for i, ev := range events {
		out[i] = LabeledEvent{Event: ev}
		// Latest period with start <= event timestamp.
		idx := sort.Search(len(sorted), func(j int) bool {
			return sorted[j].PeriodStart.After(ev.Timestamp)
		}) - 1
		if idx < 0 {
			continue
		}
		out[i].PeriodStart = sorted[idx].PeriodStart
		out[i].Group = sorted[idx].Group
	}
	return out, nil
}

// ToDataset aggregates labeled events into a per-period dataset: one record
// per period, metric averaged within the period, grouped by the period's
// arm. Unlabeled events are excluded; the result feeds the ordinary effect
// estimators with the period as the unit.
func ToDataset(events []LabeledEvent) (*experiment.Dataset, error) {
	type bucket struct {
		group experiment.Group
		sum   float64
		n     int
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time
	for _, ev := range events {
		if ev.Group == "" {
			continue
		}
		b, ok := buckets[ev.PeriodStart]
		if !ok {
			b = &bucket{group: ev.Group}
			buckets[ev.PeriodStart] = b
			order = append(order, ev.PeriodStart)
		}
		b.sum += ev.Metric
		b.n++
	}
	if len(buckets) == 0 {
		return nil, core.InsufficientDataError("no labeled events to aggregate")
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	cols := experiment.Columns{}
	for _, start := range order {
		b := buckets[start]
		cols.Units = append(cols.Units, core.UnitID(start.UTC().Format(time.RFC3339)))
		cols.Groups = append(cols.Groups, b.group)
		cols.Metric = append(cols.Metric, b.sum/float64(b.n))
	}
	return experiment.New(cols)
}
