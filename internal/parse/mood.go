package parse

import "strings"

type Rating struct {
	Name  string
	Value int
}

// Mood is one mood check-in. Only the rated dimensions are present.
type Mood struct {
	TimeOfDay string // morning, evening, quick
	Ratings   []Rating
}

// Value returns the rating for a dimension and whether it was given.
func (m Mood) Value(name string) (int, bool) {
	for _, r := range m.Ratings {
		if r.Name == name {
			return r.Value, true
		}
	}
	return 0, false
}

var (
	MorningMoodFields = []string{"mood", "energy", "motivation"}
	EveningMoodFields = []string{"mood", "focus", "anxiety", "stress", "social_battery"}
)

// MoodAnswer parses one rating per dimension in order. Non-numeric ratings
// fall back to the neutral midpoint.
func MoodAnswer(text, timeOfDay string, dims []string) (Mood, error) {
	p := fields(text)
	if len(p) < len(dims) {
		return Mood{}, unparsed("need %d ratings, got %d", len(dims), len(p))
	}
	m := Mood{TimeOfDay: timeOfDay}
	for i, d := range dims {
		m.Ratings = append(m.Ratings, Rating{Name: d, Value: intOr(p[i], neutral)})
	}
	return m, nil
}

// StrictMoodAnswer is MoodAnswer for one-shot commands, where a non-numeric
// rating means the line was not meant as a mood entry.
func StrictMoodAnswer(text, timeOfDay string, dims []string) (Mood, error) {
	p := fields(text)
	for i := 0; i < len(dims) && i < len(p); i++ {
		if intOr(p[i], -1) < 0 {
			return Mood{}, unparsed("rating %q is not a number", p[i])
		}
	}
	return MoodAnswer(strings.Join(p, " "), timeOfDay, dims)
}
