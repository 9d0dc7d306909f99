package model

import "time"

// TimeSource returns the network adjusted time.
type TimeSource interface {
	AdjustedTime() time.Time
}
