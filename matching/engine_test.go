package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
)

var riyadh = schema.Location{Latitude: 24.7136, Longitude: 46.6753}

type eligibleSet map[string]bool

func (e eligibleSet) IsEligible(helperID string) bool {
	eligible, ok := e[helperID]
	return !ok || eligible
}

func helperAt(id string, rating float64, north, east float64) schema.Helper {
	loc := geo.Offset(riyadh, north, east)
	return schema.Helper{
		ID:        id,
		Rating:    rating,
		Available: true,
		Location:  &loc,
	}
}

func ids(candidates []Candidate) []string {
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.Helper.ID)
	}
	return result
}

func testRequest() schema.HelpRequest {
	return schema.HelpRequest{
		ID:          "req-1",
		RequesterID: "user-2",
		Category:    schema.CategoryCarBreakdown,
		Location:    riyadh,
		Status:      schema.RequestActive,
	}
}

func TestFindCandidatesOrdersByDistance(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{
		helperAt("H2", 4.8, 500, 0),
		helperAt("H1", 4.8, 100, 0),
	}

	candidates := e.FindCandidates(testRequest(), helpers, 0).All()
	assert.Equal(t, []string{"H1", "H2"}, ids(candidates))
	assert.InDelta(t, 100, candidates[0].Distance, 0.5)
	assert.InDelta(t, 500, candidates[1].Distance, 0.5)
}

func TestFindCandidatesTieWithinTenMetersUsesRating(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{
		helperAt("near-low", 4.5, 100, 0),
		helperAt("far-high", 4.9, 108, 0),
		helperAt("farther", 5.0, 200, 0),
	}

	candidates := e.FindCandidates(testRequest(), helpers, 0).All()
	assert.Equal(t, []string{"far-high", "near-low", "farther"}, ids(candidates))
}

func TestFindCandidatesTieBreaksByID(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{
		helperAt("c", 4.8, 0, 300),
		helperAt("a", 4.8, 0, 300),
		helperAt("b", 4.8, 0, 302),
	}

	candidates := e.FindCandidates(testRequest(), helpers, 0).All()
	assert.Equal(t, []string{"a", "b", "c"}, ids(candidates))
}

func TestFindCandidatesIsDeterministic(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{
		helperAt("h4", 3.9, 50, 50),
		helperAt("h1", 4.8, 100, 0),
		helperAt("h3", 4.8, 104, 0),
		helperAt("h2", 4.9, 900, 0),
		helperAt("h5", 4.1, 0, 70),
	}

	first := ids(e.FindCandidates(testRequest(), helpers, 0).All())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ids(e.FindCandidates(testRequest(), helpers, 0).All()))
	}
}

func TestFindCandidatesSkipsIneligible(t *testing.T) {
	unavailable := helperAt("off", 5, 10, 0)
	unavailable.Available = false

	noLocation := helperAt("lost", 5, 10, 0)
	noLocation.Location = nil

	requester := helperAt("user-2", 5, 10, 0)

	e := NewEngine(eligibleSet{"busy": false}, 0)
	helpers := []schema.Helper{
		unavailable,
		noLocation,
		requester,
		helperAt("busy", 5, 20, 0),
		helperAt("declined", 5, 30, 0),
		helperAt("ok", 4, 40, 0),
	}

	candidates := e.FindCandidates(testRequest(), helpers, 0, "declined").All()
	assert.Equal(t, []string{"ok"}, ids(candidates))
}

func TestFindCandidatesRespectsRadius(t *testing.T) {
	e := NewEngine(eligibleSet{}, 1000)
	helpers := []schema.Helper{
		helperAt("inside", 4, 900, 0),
		helperAt("outside", 5, 1100, 0),
	}

	candidates := e.FindCandidates(testRequest(), helpers, 0).All()
	assert.Equal(t, []string{"inside"}, ids(candidates))
}

func TestFindCandidatesEmpty(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)

	seq := e.FindCandidates(testRequest(), nil, 5)
	_, ok := seq.Next()
	assert.False(t, ok)
	assert.Empty(t, seq.All())
}

func TestSequenceMaxResults(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{
		helperAt("h1", 4, 100, 0),
		helperAt("h2", 4, 200, 0),
		helperAt("h3", 4, 300, 0),
	}

	assert.Equal(t, []string{"h1", "h2"}, ids(e.FindCandidates(testRequest(), helpers, 2).All()))
}

func TestSequenceIsLazyAndRestartable(t *testing.T) {
	eligibility := eligibleSet{}
	e := NewEngine(eligibility, 0)
	helpers := []schema.Helper{
		helperAt("h1", 4, 100, 0),
		helperAt("h2", 4, 200, 0),
		helperAt("h3", 4, 300, 0),
	}

	seq := e.FindCandidates(testRequest(), helpers, 0)
	c, ok := seq.Next()
	assert.True(t, ok)
	assert.Equal(t, "h1", c.Helper.ID)

	// h2 receives an offer elsewhere after ranking
	eligibility["h2"] = false

	c, ok = seq.Next()
	assert.True(t, ok)
	assert.Equal(t, "h3", c.Helper.ID)

	_, ok = seq.Next()
	assert.False(t, ok)

	seq.Reset()
	c, ok = seq.Next()
	assert.True(t, ok)
	assert.Equal(t, "h1", c.Helper.ID)
}

func TestFindCandidatesDoesNotShareHelpers(t *testing.T) {
	e := NewEngine(eligibleSet{}, 0)
	helpers := []schema.Helper{helperAt("h1", 4, 100, 0)}

	seq := e.FindCandidates(testRequest(), helpers, 0)
	helpers[0].Location.Latitude = 0

	c, ok := seq.Next()
	assert.True(t, ok)
	assert.InDelta(t, 100, c.Distance, 0.5)
}
