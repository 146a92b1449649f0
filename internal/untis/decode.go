package untis

import "time"

// The upstream encodes dates as YYYYMMDD and times of day as H*100+M
// (single-digit hours) or HH*100+MM (two-digit hours) packed into one
// integer. Decoding uses integer division, i.e. floor arithmetic — that is
// the canonical rule here. No bounds checking is done: a malformed code
// produces a nonsensical date instead of an error, matching the upstream
// contract.

// DecodeDate converts a compact YYYYMMDD code into a local-time date.
func DecodeDate(code int) time.Time {
	year := code / 10000
	month := (code % 10000) / 100
	day := code % 100
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
}

// DecodeTime combines a date code with a time-of-day code into an absolute
// timestamp. timeCode >= 100 means the hour has its own digits; below that
// the whole code is minutes past midnight of hour zero, which the division
// handles the same way.
func DecodeTime(dateCode, timeCode int) time.Time {
	hour := timeCode / 100
	minute := timeCode % 100
	d := DecodeDate(dateCode)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local)
}

// EncodeDate renders a timestamp back into the upstream YYYYMMDD form.
// Inverse of DecodeDate for any valid calendar day.
func EncodeDate(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
