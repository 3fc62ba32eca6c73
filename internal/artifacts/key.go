package artifacts

import (
	"fmt"

	"github.com/stridestats/stridestats/internal/models"
)

// Key addresses one cached computed output: a chart, table, trivia list or
// image set for one athlete at one tier. Keys are comparable and double as
// job-dedupe keys.
type Key struct {
	AthleteID int64
	Name      string
	Tier      models.Tier
}

// String renders the key in storage-path form, e.g. "123/summary/cumulative_distance".
func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s", k.AthleteID, k.Tier, k.Name)
}
