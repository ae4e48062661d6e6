package utils

import (
	"time"
)

// NowMillis returns the current wall-clock time as milliseconds since the
// Unix epoch. Millisecond resolution matches the device sensor timestamps,
// so exported rows are directly comparable with on-device logs.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MillisToTime converts a millisecond Unix timestamp back to time.Time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// FileTimestamp formats t with second resolution for use inside filenames:
//
//	yyyyMMdd_HHmmss
func FileTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
