package enums

import (
	"fmt"
	"time"
)

// PickupBucket is the coarse pickup-time choice a customer makes after an
// order goes ready: today, tomorrow, or later (two days out).
type PickupBucket string

const (
	PickupToday    PickupBucket = "today"
	PickupTomorrow PickupBucket = "tomorrow"
	PickupLater    PickupBucket = "later"
)

var pickupOffsets = map[PickupBucket]int{
	PickupToday:    0,
	PickupTomorrow: 1,
	PickupLater:    2,
}

func (b PickupBucket) String() string {
	return string(b)
}

// IsValid reports whether the value is a known PickupBucket.
func (b PickupBucket) IsValid() bool {
	_, ok := pickupOffsets[b]
	return ok
}

// Date projects the bucket onto a concrete day relative to now.
func (b PickupBucket) Date(now time.Time) time.Time {
	return now.AddDate(0, 0, pickupOffsets[b])
}

// ParsePickupBucket converts raw callback input into a PickupBucket.
func ParsePickupBucket(value string) (PickupBucket, error) {
	bucket := PickupBucket(value)
	if !bucket.IsValid() {
		return "", fmt.Errorf("invalid pickup bucket %q", value)
	}
	return bucket, nil
}
