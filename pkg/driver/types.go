// pkg/driver/types.go
package driver

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"weighbridge-service/internal/model"
)

// Result error numbers shared by all adapters. Positive numbers other than
// ErrorNrProtocol are passed through from the device unchanged.
const (
	ErrorNrNone     = 0
	ErrorNrPolling  = -1
	ErrorNrProtocol = 90
)

// Command tokens understood by the bundled adapters
const (
	TokenWeigh    = "WEIGH"
	TokenRegister = "REGISTER"
	TokenRead     = "READ"
	TokenShow     = "SHOW"
	TokenClear    = "CLEAR"
)

// Command is a single protocol-level request passed to an adapter
type Command struct {
	Token string `json:"token"`
	Text  string `json:"text,omitempty"`
}

// Result is implemented by every device result variant
type Result interface {
	Header() *ResultHeader
}

// ResultHeader carries the error state common to every result
type ResultHeader struct {
	ErrorNr   int    `json:"error_nr"`
	ErrorText string `json:"error_text,omitempty"`
}

// Header returns the header itself so embedding types satisfy Result
func (h *ResultHeader) Header() *ResultHeader { return h }

// OK reports whether the result carries no error
func (h *ResultHeader) OK() bool { return h.ErrorNr == ErrorNrNone }

// Fail records an error number and formatted text
func (h *ResultHeader) Fail(nr int, format string, args ...interface{}) {
	h.ErrorNr = nr
	h.ErrorText = fmt.Sprintf(format, args...)
}

// ScaleResult is returned by weighing scales
type ScaleResult struct {
	ResultHeader
	Weight        decimal.Decimal `json:"weight"`
	Unit          string          `json:"unit,omitempty"`
	Stable        bool            `json:"stable"`
	CalibrationNr string          `json:"calibration_nr,omitempty"`
	AlibiNr       string          `json:"alibi_nr,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CardResult is returned by card readers
type CardResult struct {
	ResultHeader
	CardNumber string    `json:"card_number,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DisplayResult is returned by message displays
type DisplayResult struct {
	ResultHeader
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorResult builds the empty result variant for role with its header set
func NewErrorResult(role model.Role, nr int, text string) Result {
	h := ResultHeader{ErrorNr: nr, ErrorText: text}
	now := time.Now()
	switch role {
	case model.RoleScale:
		return &ScaleResult{ResultHeader: h, Timestamp: now}
	case model.RoleCard:
		return &CardResult{ResultHeader: h, Timestamp: now}
	case model.RoleDisplay:
		return &DisplayResult{ResultHeader: h, Timestamp: now}
	default:
		return &h
	}
}
