package stats

import (
	"fmt"

	"github.com/stridestats/stridestats/internal/models"
)

// Attr extracts a numeric attribute from a record. The second return value is
// false when the record lacks the attribute.
type Attr func(rec *models.ActivityRecord) (float64, bool)

// DistanceAttr reads the activity distance in meters.
func DistanceAttr(rec *models.ActivityRecord) (float64, bool) {
	return rec.DistanceMeters, true
}

// ElevationAttr reads the elevation gain in meters.
func ElevationAttr(rec *models.ActivityRecord) (float64, bool) {
	return rec.ElevationGain, true
}

// MinAttribute finds the minimum of an attribute over activities of one sport
// type. If every observed value was zero the result is suppressed: a sport
// like "Workout" logs zero distance on every record, and "0 meters" is not a
// meaningful minimum.
type MinAttribute struct {
	sportType string
	attrName  string
	attr      Attr
	unit      string

	allZero    bool
	activityID int64
	value      *float64
}

// NewMinAttribute builds a minimum collector for one sport type. attrName and
// unit only affect formatting, e.g. ("Run", "Distance", DistanceAttr, "meters").
func NewMinAttribute(sportType, attrName string, attr Attr, unit string) *MinAttribute {
	return &MinAttribute{sportType: sportType, attrName: attrName, attr: attr, unit: unit, allZero: true}
}

func (c *MinAttribute) Process(rec *models.ActivityRecord) {
	if rec.SportType != c.sportType {
		return
	}
	v, ok := c.attr(rec)
	if !ok {
		return
	}
	if v != 0 {
		c.allZero = false
	}
	if c.value == nil || v < *c.value {
		c.value = &v
		c.activityID = rec.ID
	}
}

func (c *MinAttribute) Finalize() *Result {
	if c.allZero || c.value == nil {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%.0f %s", *c.value, c.unit), ActivityID: c.activityID}
}

func (c *MinAttribute) Description() string {
	return fmt.Sprintf("%s with Minimum %s", c.sportType, c.attrName)
}

// MaxAttribute finds the maximum of an attribute over activities of one sport
// type, with the same all-zero suppression as MinAttribute.
type MaxAttribute struct {
	sportType string
	attrName  string
	attr      Attr
	unit      string

	allZero    bool
	activityID int64
	value      *float64
}

// NewMaxAttribute builds a maximum collector for one sport type.
func NewMaxAttribute(sportType, attrName string, attr Attr, unit string) *MaxAttribute {
	return &MaxAttribute{sportType: sportType, attrName: attrName, attr: attr, unit: unit, allZero: true}
}

func (c *MaxAttribute) Process(rec *models.ActivityRecord) {
	if rec.SportType != c.sportType {
		return
	}
	v, ok := c.attr(rec)
	if !ok {
		return
	}
	if v != 0 {
		c.allZero = false
	}
	if c.value == nil || v > *c.value {
		c.value = &v
		c.activityID = rec.ID
	}
}

func (c *MaxAttribute) Finalize() *Result {
	if c.allZero || c.value == nil {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%.0f %s", *c.value, c.unit), ActivityID: c.activityID}
}

func (c *MaxAttribute) Description() string {
	return fmt.Sprintf("%s with Maximum %s", c.sportType, c.attrName)
}
