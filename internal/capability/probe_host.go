package capability

import (
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

// HostProbe reads real device counters via gopsutil.
type HostProbe struct{}

// Memory returns total and available physical memory in MB.
func (HostProbe) Memory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	const mb = 1024 * 1024
	return vm.Total / mb, vm.Available / mb, nil
}

// ThermalHeadroom derives a 0.0-1.0 throttling forecast from the hottest
// sensor that reports a critical trip point. Platforms without sensors (or
// without trip points) report no signal, which the cascade treats as safe.
func (HostProbe) ThermalHeadroom() (float64, bool) {
	temps, err := sensors.SensorsTemperatures()
	if err != nil || len(temps) == 0 {
		return 0, false
	}
	worst, known := 0.0, false
	for _, t := range temps {
		if t.Critical <= 0 || t.Temperature <= 0 {
			continue
		}
		h := t.Temperature / t.Critical
		if h > 1 {
			h = 1
		}
		if !known || h > worst {
			worst, known = h, true
		}
	}
	return worst, known
}
