package consts

import (
	"time"
)

// CohortDistanceRange is the radius in meters inside which helpers are
// considered for a request
const CohortDistanceRange = 50000

// StaleRequestAge is how long a request may stay active before the
// sweeper cancels it on behalf of the requester
const StaleRequestAge = 12 * time.Hour

// PointsPerHelp is awarded to a helper for every completed request
const PointsPerHelp = 10

const (
	BadgeHelpingHand   = "helping_hand"
	BadgeCommunityStar = "community_star"
	BadgeHero          = "hero"
)

// BadgeThresholds maps a badge to the number of completed helps it requires
var BadgeThresholds = []struct {
	Badge string
	Helps int
}{
	{BadgeHelpingHand, 10},
	{BadgeCommunityStar, 50},
	{BadgeHero, 100},
}
