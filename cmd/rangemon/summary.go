package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rangecode-go/types"
)

// Summary accumulates readings per sensor.
type Summary struct {
	Malformed int
	sensors   map[string]*sensorRun
}

type sensorRun struct {
	count     int
	predicted int
	measured  []float64
}

// SensorStats is the summary of one sensor's readings. Distance figures
// cover measured readings only.
type SensorStats struct {
	Sensor         string
	Count          int
	Predicted      int
	PredictedRatio float64
	Mean           float64
	StdDev         float64 // population
	Min, Max       float64
}

func NewSummary() *Summary {
	return &Summary{sensors: map[string]*sensorRun{}}
}

func (s *Summary) Add(r types.RangeReading) {
	run, ok := s.sensors[r.Sensor]
	if !ok {
		run = &sensorRun{}
		s.sensors[r.Sensor] = run
	}
	run.count++
	if r.Predicted {
		run.predicted++
		return
	}
	run.measured = append(run.measured, float64(r.Distance))
}

// Stats returns one entry per sensor, sorted by sensor id.
func (s *Summary) Stats() []SensorStats {
	ids := make([]string, 0, len(s.sensors))
	for id := range s.sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SensorStats, 0, len(ids))
	for _, id := range ids {
		run := s.sensors[id]
		st := SensorStats{
			Sensor:         id,
			Count:          run.count,
			Predicted:      run.predicted,
			PredictedRatio: float64(run.predicted) / float64(run.count),
		}
		if len(run.measured) > 0 {
			st.Mean, st.StdDev = stat.PopMeanStdDev(run.measured, nil)
			st.Min = floats.Min(run.measured)
			st.Max = floats.Max(run.measured)
		}
		out = append(out, st)
	}
	return out
}

func (s *Summary) Print(w io.Writer) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "summary")
	for _, st := range s.Stats() {
		fmt.Fprintf(w, "  %-8s n=%d predicted=%d (%.0f%%) mean=%.2f sd=%.2f min=%.2f max=%.2f\n",
			st.Sensor, st.Count, st.Predicted, 100*st.PredictedRatio, st.Mean, st.StdDev, st.Min, st.Max)
	}
	if s.Malformed > 0 {
		fmt.Fprintf(w, "  malformed lines: %d\n", s.Malformed)
	}
}
