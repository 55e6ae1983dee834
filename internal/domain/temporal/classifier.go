package temporal

import (
	"fmt"
	"time"
)

// Bucket is the discrete continuity signal for the gap since the last message.
type Bucket string

const (
	BucketNone  Bucket = "none"
	BucketMild  Bucket = "mild"
	BucketHours Bucket = "hours"
	BucketDays  Bucket = "days"
	BucketWeeks Bucket = "weeks"
)

// Bucket lower bounds in hours.
const (
	mildThreshold  = 1.5
	hoursThreshold = 4
	daysThreshold  = 24
	weeksThreshold = 168
)

// Signal is the classified gap plus the instruction injected into the prompt.
// Instruction is empty for BucketNone.
type Signal struct {
	Bucket      Bucket
	Hours       float64
	Instruction string
}

// Classify maps the gap between previous and now onto exactly one bucket.
// A nil previous timestamp is a first turn. Clock skew that puts previous
// after now counts as no gap.
func Classify(previous *time.Time, now time.Time) Signal {
	if previous == nil || previous.IsZero() {
		return Signal{Bucket: BucketNone}
	}

	hours := now.Sub(*previous).Hours()
	if hours < 0 {
		hours = 0
	}

	signal := Signal{Hours: hours}
	switch {
	case hours < mildThreshold:
		signal.Bucket = BucketNone
	case hours < hoursThreshold:
		signal.Bucket = BucketMild
		signal.Instruction = "It has been a couple of hours since the last message. A light, casual nod to the gap is fine; do not make a big deal of it."
	case hours < daysThreshold:
		signal.Bucket = BucketHours
		signal.Instruction = fmt.Sprintf("The user is back after about %d hours. Welcome them back warmly and reference what you were last talking about.", int(hours))
	case hours < weeksThreshold:
		days := int(hours / 24)
		signal.Bucket = BucketDays
		signal.Instruction = fmt.Sprintf("It has been %s since the last conversation. Acknowledge the time and check in on how they have been.", plural(days, "day"))
	default:
		weeks := int(hours / weeksThreshold)
		signal.Bucket = BucketWeeks
		signal.Instruction = fmt.Sprintf("It has been %s since you last talked. Acknowledge the time away and ask for an update on what has been going on in their life.", plural(weeks, "week"))
	}
	return signal
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
