package services

import "fmt"

const (
	shortBlockDays = 3
	longBlockDays  = 7
)

// BlockDurationForLateDays maps days late to a borrowing block length:
// up to three days late blocks for 3 days, anything later for 7.
func BlockDurationForLateDays(daysLate int) int {
	if daysLate <= 3 {
		return shortBlockDays
	}
	return longBlockDays
}

func LateReturnReason(daysLate int) string {
	if daysLate == 1 {
		return "Late return by 1 day"
	}
	return fmt.Sprintf("Late return by %d days", daysLate)
}
