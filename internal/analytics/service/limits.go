package service

// bounds are the default and maximum of one paged or windowed query.
type bounds struct {
	def int
	min int
	max int
}

var (
	topItemsLimit     = bounds{def: 5, min: 1, max: 50}
	hotLeadsLimit     = bounds{def: 10, min: 1, max: 100}
	recentEventsLimit = bounds{def: 50, min: 1, max: 200}
	dailyDays         = bounds{def: 7, min: 1, max: 365}
	eventWindowDays   = bounds{def: 30, min: 1, max: 365}
)

// normalize maps non-positive values to the default and clamps the rest.
func (b bounds) normalize(v int) int {
	if v < b.min {
		return b.def
	}
	if v > b.max {
		return b.max
	}
	return v
}
