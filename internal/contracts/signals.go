package contracts

// Direction is the verdict of a scored flow
type Direction string

const (
	DirectionAccumulation Direction = "accumulation"
	DirectionDistribution Direction = "distribution"
	DirectionNeutral      Direction = "neutral"
)

// Signal tags
const (
	TagCohortIn        = "cohort-in"         // strong institutional buying
	TagCohortOut       = "cohort-out"        // retail exiting
	TagCohortFomo      = "cohort-fomo"       // retail chasing
	TagWhaleEatsRetail = "whale-eats-retail" // institutions absorbing retail selling
)

// Signal is the deterministic verdict for one FlowSummary
// ⭐ SSOT: S2 scorer → S3 ranking
type Signal struct {
	Score     int       `json:"score"`
	Tags      []string  `json:"tags"` // insertion ordered, no duplicates
	Direction Direction `json:"direction"`
}

// HasTag checks if the signal carries a tag
func (s *Signal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag unless already present
func (s *Signal) AddTag(tag string) {
	if !s.HasTag(tag) {
		s.Tags = append(s.Tags, tag)
	}
}

// IsAccumulation is shorthand for Direction == Accumulation
func (s *Signal) IsAccumulation() bool {
	return s != nil && s.Direction == DirectionAccumulation
}
