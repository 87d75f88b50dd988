package utils

// MaxDiscountCents returns the largest settlement discount allowed for
// the given outstanding balance, truncated to whole cents.
func MaxDiscountCents(outstandingCents int64, maxPercent int) int64 {
	return outstandingCents * int64(maxPercent) / 100
}
