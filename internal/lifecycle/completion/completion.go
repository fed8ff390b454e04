// Package completion holds the collaborator interfaces the lifecycle core
// consumes for exposure completion percentages and request durations. The
// real numbers come from the submission pipeline; the default
// implementations here work from the stored exposure bookkeeping.
package completion

import (
	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	"github.com/codacy-badger/observation-portal/internal/domain/proposals"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
)

// Calculator computes how much of an observation actually executed,
// as a percentage in [0, 100].
type Calculator interface {
	Percent(statuses []*obstypes.ConfigurationStatus) float64
}

// DurationCalculator maps requests and groups onto the time they consume
// from allocation pools, in seconds.
type DurationCalculator interface {
	RequestDuration(req *reqtypes.Request) float64
	GroupDurations(group *reqtypes.RequestGroup) map[proposals.AllocationKey]float64
}

// KeyForRequest returns the allocation pool a request draws from.
func KeyForRequest(req *reqtypes.Request) proposals.AllocationKey {
	return proposals.AllocationKey{
		SemesterID:     req.SemesterID,
		InstrumentType: req.InstrumentType,
	}
}

// ExposureCalculator derives completion from per-configuration exposure
// counts, weighted by exposure time when present.
type ExposureCalculator struct{}

func (ExposureCalculator) Percent(statuses []*obstypes.ConfigurationStatus) float64 {
	var requested, completed float64
	for _, cs := range statuses {
		if cs == nil {
			continue
		}
		weight := cs.ExposureTime
		if weight <= 0 {
			weight = 1
		}
		requested += weight * float64(cs.ExposuresRequested)
		completed += weight * float64(cs.ExposuresCompleted)
	}
	if requested <= 0 {
		return 0
	}
	pct := 100 * completed / requested
	if pct > 100 {
		pct = 100
	}
	return pct
}

// StoredDurations reads the durations the submission pipeline computed and
// persisted on each request.
type StoredDurations struct{}

func (StoredDurations) RequestDuration(req *reqtypes.Request) float64 {
	if req == nil {
		return 0
	}
	return req.Duration
}

func (StoredDurations) GroupDurations(group *reqtypes.RequestGroup) map[proposals.AllocationKey]float64 {
	out := map[proposals.AllocationKey]float64{}
	if group == nil {
		return out
	}
	for i := range group.Requests {
		req := &group.Requests[i]
		out[KeyForRequest(req)] += req.Duration
	}
	return out
}
