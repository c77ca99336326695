package score

// Rating is a verbal verdict on a normalized score.
type Rating struct {
	Name      string
	Message   string
	Threshold float64 // lowest normalized score earning this rating
}

var (
	Superb   = Rating{Name: "superb", Message: "Superb!", Threshold: 0.8}
	Ok       = Rating{Name: "ok", Message: "Good enough.", Threshold: 0.5}
	TryAgain = Rating{Name: "try again", Message: "Try again :(", Threshold: 0}
)

// Ratings lists the ratings from best to worst.
var Ratings = []Rating{Superb, Ok, TryAgain}

// Rate returns the best rating whose threshold score reaches.
func Rate(score float64) Rating {
	for _, r := range Ratings {
		if score >= r.Threshold {
			return r
		}
	}
	return Ratings[len(Ratings)-1]
}

// Passed reports whether the rating is good enough to move on.
func (r Rating) Passed() bool {
	return r.Threshold >= Ok.Threshold
}
