package audit

import (
	"encoding/json"
	"log"
	"strings"
	"time"
)

type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	UserID       string    `json:"user_id,omitempty"`
	SerialNumber string    `json:"serial_number,omitempty"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"`
	Details      any       `json:"details,omitempty"`
}

// Logger writes one JSON line per voucher operation. Tokens never reach it
// unmasked.
type Logger struct {
	out *log.Logger
}

func NewLogger() *Logger {
	return &Logger{out: log.Default()}
}

// NewLoggerTo is used by tests to capture output.
func NewLoggerTo(out *log.Logger) *Logger {
	return &Logger{out: out}
}

func (a *Logger) LogSplit(requestID, userID, serial string, amounts []int64, status string) {
	var total int64
	for _, v := range amounts {
		total += v
	}
	a.log(Event{
		Timestamp:    time.Now(),
		EventType:    "SPLIT",
		RequestID:    requestID,
		UserID:       userID,
		SerialNumber: serial,
		Amount:       total,
		Status:       status,
		Details:      map[string]any{"vouchers": len(amounts), "amounts": amounts},
	})
}

func (a *Logger) LogRedemption(requestID, userID, kind, token string, amount int64, status string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "REDEEM",
		RequestID: requestID,
		UserID:    userID,
		Amount:    amount,
		Status:    status,
		Details:   map[string]string{"kind": kind, "token": MaskToken(token)},
	})
}

func (a *Logger) LogPurchase(requestID, userID, serial string, amount int64, status string) {
	a.log(Event{
		Timestamp:    time.Now(),
		EventType:    "PURCHASE",
		RequestID:    requestID,
		UserID:       userID,
		SerialNumber: serial,
		Amount:       amount,
		Status:       status,
	})
}

func (a *Logger) LogError(requestID, userID, operation string, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "ERROR",
		RequestID: requestID,
		UserID:    userID,
		Status:    "FAILED",
		Details:   map[string]string{"operation": operation, "error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}

// MaskToken keeps the last four characters of a voucher PIN.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
