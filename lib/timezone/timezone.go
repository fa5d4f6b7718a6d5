package timezone

import (
	"time"

	_ "time/tzdata"
)

// Location is the timezone the dining halls publish their menus in.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// Now returns the current time in the dining halls' timezone.
func Now() time.Time {
	return time.Now().In(Location)
}
