//go:build linux

// Package cpuload reads aggregate CPU utilization from /proc/stat. Each
// sample is the active share of the jiffy delta since the previous sample,
// so the first call after construction only primes the counters.
package cpuload

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/rgbmond/internal/errors"
)

const statPath = "/proc/stat"

// Sampler produces load fractions in [0,1] from consecutive /proc/stat
// readings. Not safe for concurrent use; the control loop owns it.
type Sampler struct {
	prevActive uint64
	prevTotal  uint64
	primed     bool
}

func NewSampler() *Sampler {
	return &Sampler{}
}

// Sample returns the CPU load fraction over the window since the previous
// call. The first call primes the counters and returns 0.
func (s *Sampler) Sample() (float64, error) {
	active, total, err := readSystemCPU()
	if err != nil {
		return 0, err
	}

	defer func() {
		s.prevActive = active
		s.prevTotal = total
		s.primed = true
	}()

	if !s.primed {
		return 0, nil
	}

	deltaActive := delta(active, s.prevActive)
	deltaTotal := delta(total, s.prevTotal)
	if deltaTotal == 0 {
		return 0, nil
	}

	return float64(deltaActive) / float64(deltaTotal), nil
}

// readSystemCPU parses the aggregate cpu line of /proc/stat:
// active = user + nice + system + irq + softirq + steal,
// total = active + idle + iowait. Both are monotonic jiffy counters.
func readSystemCPU() (active, total uint64, err error) {
	errFactory := errors.New()

	f, e := os.Open(statPath)
	if e != nil {
		return 0, 0, errFactory.Wrap(errors.ErrInternal, e)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}

		return parseCPUFields(fields[1:])
	}

	return 0, 0, errFactory.WithData(errors.ErrInternal, "no aggregate cpu line")
}

func parseCPUFields(fields []string) (active, total uint64, err error) {
	errFactory := errors.New()
	if len(fields) < 8 {
		return 0, 0, errFactory.WithData(errors.ErrInternal, "short cpu line")
	}

	vals := make([]uint64, len(fields))
	for i, s := range fields {
		vals[i], _ = strconv.ParseUint(s, 10, 64)
	}

	// user + nice + system + irq + softirq + steal
	active = vals[0] + vals[1] + vals[2] + vals[5] + vals[6] + vals[7]
	// active + idle + iowait
	total = active + vals[3] + vals[4]

	return active, total, nil
}

func delta(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}

	// counter wrapped or prev unset
	return 0
}
