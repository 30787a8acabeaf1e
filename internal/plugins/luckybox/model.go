// Package luckybox assigns each visitor IP one lucky number and fortune
// message per calendar day.
package luckybox

import "time"

// Draw bounds.
const (
	MinLuckyNumber = 10
	MaxLuckyNumber = 99

	// MessageCount is the number of fortune messages the client ships with;
	// messageIndex is in [0, MessageCount).
	MessageCount = 50
)

// Result is what the store keeps per (date, IP). It is never modified
// after creation.
type Result struct {
	LuckyNumber  int       `json:"luckyNumber"`
	MessageIndex int       `json:"messageIndex"`
	Timestamp    time.Time `json:"timestamp"`
}

// Draw is the response for GET /api/lucky-box.
type Draw struct {
	LuckyNumber  int    `json:"luckyNumber"`
	MessageIndex int    `json:"messageIndex"`
	IsFirstTime  bool   `json:"isFirstTime"`
	Date         string `json:"date"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds of the original draw
}

func newDraw(date string, r Result, first bool) *Draw {
	return &Draw{
		LuckyNumber:  r.LuckyNumber,
		MessageIndex: r.MessageIndex,
		IsFirstTime:  first,
		Date:         date,
		Timestamp:    r.Timestamp.UnixMilli(),
	}
}
