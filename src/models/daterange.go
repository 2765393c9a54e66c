package models

import "time"

// RangeKind tags which bounds of a DateRange are set.
type RangeKind int

const (
	RangeNone RangeKind = iota
	RangeFromOnly
	RangeToOnly
	RangeBoth
)

// DateRange is an optional, inclusive time window. The zero value is unbounded.
type DateRange struct {
	kind RangeKind
	from time.Time
	to   time.Time
}

func Unbounded() DateRange { return DateRange{} }

func Since(from time.Time) DateRange { return DateRange{kind: RangeFromOnly, from: from} }

func Until(to time.Time) DateRange { return DateRange{kind: RangeToOnly, to: to} }

func Between(from, to time.Time) DateRange {
	return DateRange{kind: RangeBoth, from: from, to: to}
}

// NewDateRange builds a range from optional bounds, as parsed from query strings.
func NewDateRange(from, to *time.Time) DateRange {
	switch {
	case from != nil && to != nil:
		return Between(*from, *to)
	case from != nil:
		return Since(*from)
	case to != nil:
		return Until(*to)
	default:
		return Unbounded()
	}
}

func (r DateRange) Kind() RangeKind { return r.kind }

// From is the lower bound; only meaningful for RangeFromOnly and RangeBoth.
func (r DateRange) From() time.Time { return r.from }

// To is the upper bound; only meaningful for RangeToOnly and RangeBoth.
func (r DateRange) To() time.Time { return r.to }

// Contains reports whether t lies inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	switch r.kind {
	case RangeFromOnly:
		return !t.Before(r.from)
	case RangeToOnly:
		return !t.After(r.to)
	case RangeBoth:
		return !t.Before(r.from) && !t.After(r.to)
	default:
		return true
	}
}

// Key renders the range for cache keys.
func (r DateRange) Key() string {
	switch r.kind {
	case RangeFromOnly:
		return "from:" + r.from.UTC().Format(time.RFC3339Nano)
	case RangeToOnly:
		return "to:" + r.to.UTC().Format(time.RFC3339Nano)
	case RangeBoth:
		return r.from.UTC().Format(time.RFC3339Nano) + ".." + r.to.UTC().Format(time.RFC3339Nano)
	default:
		return "all"
	}
}
