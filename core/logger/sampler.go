package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// debugSampler lets num of every den calls through. A zero ratio lets all through.
type debugSampler struct {
	num   atomic.Int64
	den   atomic.Int64
	calls atomic.Uint64
}

func (s *debugSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	if num > den {
		num = den
	}
	s.num.Store(int64(num))
	s.den.Store(int64(den))
	s.calls.Store(0)
}

func (s *debugSampler) Allow() bool {
	num, den := s.num.Load(), s.den.Load()
	if num <= 0 || den <= 0 {
		return true
	}
	n := s.calls.Add(1) - 1
	return int64(n%uint64(den)) < num
}

// debugRatio parses logging.debug_sample: "N/D", "D" for 1/D, or "0"/"off"
// to keep every line. Empty or malformed values mean 1/50.
func debugRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "0" || strings.EqualFold(spec, "off") {
		return 0, 0
	}
	numStr, denStr, ok := strings.Cut(spec, "/")
	if !ok {
		numStr, denStr = "1", spec
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
	den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
	if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
		return 1, 50
	}
	return num, den
}
