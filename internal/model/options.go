// internal/model/options.go
package model

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Well-known option keys
const (
	OptionTimeoutMs      = "timeout_ms"
	OptionBufferSize     = "buffer_size"
	OptionPollIntervalMs = "poll_interval_ms"
	OptionPollDelayMs    = "poll_delay_ms"
	OptionUnit           = "unit"
	OptionSlaveID        = "slave_id"
	OptionRegister       = "register"
)

// OptionReader provides typed access to device options. Values that fail to
// parse fall back to the supplied default and are logged as warnings.
type OptionReader struct {
	options Options
	logger  *zap.Logger
}

// NewOptionReader creates a reader over opts
func NewOptionReader(opts Options, logger *zap.Logger) OptionReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return OptionReader{options: opts, logger: logger}
}

// lookup matches key case-insensitively; an exact match wins
func (r OptionReader) lookup(key string) (string, bool) {
	v, ok := r.options[key]
	if !ok {
		for k, val := range r.options {
			if strings.EqualFold(k, key) {
				v, ok = val, true
				break
			}
		}
	}
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// String returns the option value or def when absent
func (r OptionReader) String(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

// Int returns the option as int or def when absent or malformed
func (r OptionReader) Int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.logger.Warn("Invalid integer option, using default",
			zap.String("key", key),
			zap.String("value", v),
			zap.Int("default", def),
		)
		return def
	}
	return n
}

// Float returns the option as float64 or def when absent or malformed
func (r OptionReader) Float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.logger.Warn("Invalid float option, using default",
			zap.String("key", key),
			zap.String("value", v),
			zap.Float64("default", def),
		)
		return def
	}
	return f
}

// Millis reads an integer millisecond option as a duration
func (r OptionReader) Millis(key string, def time.Duration) time.Duration {
	ms := r.Int(key, int(def/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
