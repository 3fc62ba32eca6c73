package stats

import "fmt"

// Activity and segment pages on the upstream platform. Tidbits link out to
// these so users can open the activity that set a record.
const (
	activityLinkFormat = "https://www.strava.com/activities/%d"
	segmentLinkFormat  = "https://www.strava.com/segments/%d"
)

// ActivityLink returns the public URL of an activity.
func ActivityLink(activityID int64) string {
	return fmt.Sprintf(activityLinkFormat, activityID)
}

// SegmentLink returns the public URL of a segment.
func SegmentLink(segmentID int64) string {
	return fmt.Sprintf(segmentLinkFormat, segmentID)
}
