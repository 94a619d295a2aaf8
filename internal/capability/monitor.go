package capability

import (
	"fmt"
	"math"

	"graded/pkg/types"
)

// Defaults applied when corresponding Thresholds fields are unset.
const (
	defaultMinTotalMB       = 6144
	defaultMinAvailMB       = 2500
	defaultComfortableMB    = 4096
	defaultThermalHighWater = 0.9
)

// Thresholds are the floors of the capability cascade, in MB. Zero values
// mean "use package defaults".
type Thresholds struct {
	// MinTotalMB is the device-class floor: below this total RAM the model
	// can never run, regardless of current availability.
	MinTotalMB uint64
	// MinAvailMB is the hard floor on currently available RAM.
	MinAvailMB uint64
	// ComfortableMB separates Limited from Capable.
	ComfortableMB uint64
	// ThermalHighWater is the headroom value (0.0-1.0) at or above which
	// inference is blocked until the device cools down.
	ThermalHighWater float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.MinTotalMB == 0 {
		t.MinTotalMB = defaultMinTotalMB
	}
	if t.MinAvailMB == 0 {
		t.MinAvailMB = defaultMinAvailMB
	}
	if t.ComfortableMB == 0 {
		t.ComfortableMB = defaultComfortableMB
	}
	if t.ThermalHighWater == 0 {
		t.ThermalHighWater = defaultThermalHighWater
	}
	return t
}

// Probe reads raw device counters. Implementations must be side-effect free.
type Probe interface {
	// Memory returns total and currently available physical memory in MB.
	Memory() (totalMB, availMB uint64, err error)
	// ThermalHeadroom returns a 0.0-1.0 throttling forecast and whether the
	// platform exposes one at all. A NaN reading counts as not exposed.
	ThermalHeadroom() (float64, bool)
}

// Monitor classifies current device capacity into a tier. Check never
// fails; it only observes.
type Monitor struct {
	probe Probe
	th    Thresholds
}

// NewMonitor builds a Monitor over the given probe. A nil probe uses the
// host probe backed by gopsutil.
func NewMonitor(probe Probe, th Thresholds) *Monitor {
	if probe == nil {
		probe = HostProbe{}
	}
	return &Monitor{probe: probe, th: th.withDefaults()}
}

// Check samples the device and returns the capability tier plus the numbers
// that produced it. The cascade is ordered: the total-RAM floor and thermal
// safety are absolute gates; available RAM decides the remaining tiers.
func (m *Monitor) Check() types.CapabilityAssessment {
	headroom, thermalKnown := m.probe.ThermalHeadroom()
	if math.IsNaN(headroom) {
		thermalKnown = false
	}
	out := types.CapabilityAssessment{}
	if thermalKnown {
		h := headroom
		out.ThermalHeadroom = &h
	}

	totalMB, availMB, err := m.probe.Memory()
	out.AvailableMemoryMB = availMB
	if err != nil {
		// Without memory numbers safety cannot be attested.
		out.Tier = types.TierUnsupported
		out.Diagnosis = fmt.Sprintf("cannot read device memory: %v", err)
		return out
	}

	switch {
	case totalMB < m.th.MinTotalMB:
		out.Tier = types.TierUnsupported
		out.Diagnosis = fmt.Sprintf("device has %d MB RAM, below the %d MB minimum for this model", totalMB, m.th.MinTotalMB)
	case thermalKnown && headroom >= m.th.ThermalHighWater:
		out.Tier = types.TierUnsupported
		out.Diagnosis = fmt.Sprintf("thermal headroom %.2f at or above %.2f, cool down before proceeding", headroom, m.th.ThermalHighWater)
	case availMB < m.th.MinAvailMB:
		out.Tier = types.TierUnsupported
		out.Diagnosis = fmt.Sprintf("insufficient memory right now: %d MB available, need %d MB", availMB, m.th.MinAvailMB)
	case availMB < m.th.ComfortableMB:
		out.Tier = types.TierLimited
		out.Diagnosis = fmt.Sprintf("tight headroom: %d MB available, one request at a time", availMB)
	default:
		out.Tier = types.TierCapable
		out.Diagnosis = "comfortable headroom"
	}
	return out
}
