package matching

import (
	"sort"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
)

// TieDistance is the distance in meters under which two helpers are
// considered equally far from a request
const TieDistance = 10.0

// Eligibility reports whether a helper may receive a new offer right now
type Eligibility interface {
	IsEligible(helperID string) bool
}

type Candidate struct {
	Helper   schema.Helper `json:"helper"`
	Distance float64       `json:"distance"`
}

// Engine ranks helpers for a request
type Engine struct {
	eligibility Eligibility
	maxDistance float64
}

// NewEngine returns an engine. A maxDistance of zero or less disables the
// radius filter.
func NewEngine(eligibility Eligibility, maxDistance float64) *Engine {
	return &Engine{
		eligibility: eligibility,
		maxDistance: maxDistance,
	}
}

// FindCandidates returns a lazy sequence of helpers ranked by distance,
// then rating, then id. Ranking happens on the first call to Next and
// eligibility is checked as each candidate is yielded. A maxResults of zero
// or less means no limit. Excluded helpers are never yielded.
func (e *Engine) FindCandidates(request schema.HelpRequest, helpers []schema.Helper, maxResults int, excluded ...string) *Sequence {
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	snapshot := make([]schema.Helper, len(helpers))
	for i, h := range helpers {
		snapshot[i] = h.Clone()
	}

	return &Sequence{
		engine:     e,
		request:    request.Clone(),
		helpers:    snapshot,
		maxResults: maxResults,
		excluded:   skip,
	}
}

func (e *Engine) rank(request schema.HelpRequest, helpers []schema.Helper, excluded map[string]bool) []Candidate {
	candidates := make([]Candidate, 0, len(helpers))
	for _, h := range helpers {
		if !h.Available || h.Location == nil {
			continue
		}
		if h.ID == request.RequesterID || excluded[h.ID] {
			continue
		}

		d := geo.Distance(request.Location, *h.Location)
		if e.maxDistance > 0 && d > e.maxDistance {
			continue
		}
		candidates = append(candidates, Candidate{Helper: h, Distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return byRatingThenID(candidates[i], candidates[j])
	})

	// helpers whose distance lies within TieDistance of the nearest helper
	// of their group are ordered by rating
	for start := 0; start < len(candidates); {
		end := start + 1
		for end < len(candidates) && candidates[end].Distance-candidates[start].Distance <= TieDistance {
			end++
		}

		group := candidates[start:end]
		sort.SliceStable(group, func(i, j int) bool {
			return byRatingThenID(group[i], group[j])
		})
		start = end
	}

	return candidates
}

func byRatingThenID(a, b Candidate) bool {
	if a.Helper.Rating != b.Helper.Rating {
		return a.Helper.Rating > b.Helper.Rating
	}
	return a.Helper.ID < b.Helper.ID
}

// Sequence is a finite, restartable iterator over ranked candidates
type Sequence struct {
	engine     *Engine
	request    schema.HelpRequest
	helpers    []schema.Helper
	maxResults int
	excluded   map[string]bool

	ranked   []Candidate
	isRanked bool
	pos      int
	yielded  int
}

// Next returns the next eligible candidate, or false when the sequence is
// exhausted
func (s *Sequence) Next() (Candidate, bool) {
	if !s.isRanked {
		s.ranked = s.engine.rank(s.request, s.helpers, s.excluded)
		s.isRanked = true
	}

	for s.pos < len(s.ranked) {
		if s.maxResults > 0 && s.yielded >= s.maxResults {
			return Candidate{}, false
		}

		c := s.ranked[s.pos]
		s.pos++

		if s.engine.eligibility != nil && !s.engine.eligibility.IsEligible(c.Helper.ID) {
			continue
		}

		s.yielded++
		return c, true
	}

	return Candidate{}, false
}

// Reset rewinds the sequence to its first candidate
func (s *Sequence) Reset() {
	s.pos = 0
	s.yielded = 0
}

// All drains a fresh pass over the sequence and rewinds it
func (s *Sequence) All() []Candidate {
	s.Reset()
	defer s.Reset()

	candidates := make([]Candidate, 0)
	for {
		c, ok := s.Next()
		if !ok {
			return candidates
		}
		candidates = append(candidates, c)
	}
}
