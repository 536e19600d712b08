package parse

import (
	"strconv"
	"strings"
)

// Exercise is one logged session. Empty fields are written as empty cells.
type Exercise struct {
	Type              string
	Duration          string // minutes
	WorkoutType       string
	RPE               string
	Stretching        string
	SaunaTemp         string
	SaunaRounds       string
	SaunaMinsPerRound string
	VO2max            string
}

// IsSauna reports whether the session counts toward the weekly sauna goal.
func (e Exercise) IsSauna() bool {
	return strings.Contains(strings.ToLower(e.Type), "sauna")
}

// durationOnly are the session kinds that take just "kind minutes".
var durationOnly = map[string]string{
	"walk":     "Walk",
	"fussball": "Fussball",
	"football": "Fussball",
	"sport":    "Sport",
	"yoga":     "Yoga",
	"swim":     "Swim",
	"run":      "Run",
	"bike":     "Bike",
}

// ExerciseEntry parses one session:
//
//	gym 45 push 8 [stretch_min]
//	cardio 30 run
//	sauna 80 3 7       (temp, rounds, minutes per round)
//	sauna 20 80 3x7    (minutes, temp, rounds x minutes)
//	walk 45
func ExerciseEntry(text string) (Exercise, error) {
	p := fields(strings.ToLower(text))
	if len(p) == 0 {
		return Exercise{}, unparsed("empty exercise")
	}
	kind := p[0]
	switch {
	case kind == "gym":
		if len(p) < 4 {
			return Exercise{}, unparsed("gym needs minutes, type and rpe")
		}
		e := Exercise{Type: "Gym", Duration: p[1], WorkoutType: p[2], RPE: p[3]}
		if len(p) > 4 {
			e.Stretching = p[4]
		}
		return e, nil

	case kind == "cardio":
		if len(p) < 3 {
			return Exercise{}, unparsed("cardio needs minutes and type")
		}
		return Exercise{Type: "Cardio", Duration: p[1], WorkoutType: p[2]}, nil

	case kind == "sauna":
		return saunaEntry(p[1:])

	case durationOnly[kind] != "":
		if len(p) < 2 {
			return Exercise{}, unparsed("%s needs minutes", kind)
		}
		return Exercise{Type: durationOnly[kind], Duration: p[1]}, nil
	}
	return Exercise{}, unparsed("unknown exercise %q", kind)
}

func saunaEntry(p []string) (Exercise, error) {
	if len(p) < 3 {
		return Exercise{}, unparsed("sauna needs three values")
	}
	// Compact form: minutes temp RxM.
	if rounds, per, ok := strings.Cut(p[2], "x"); ok {
		return Exercise{
			Type:              "Sauna",
			Duration:          p[0],
			SaunaTemp:         p[1],
			SaunaRounds:       rounds,
			SaunaMinsPerRound: per,
		}, nil
	}
	e := Exercise{Type: "Sauna", SaunaTemp: p[0], SaunaRounds: p[1], SaunaMinsPerRound: p[2]}
	r, err1 := strconv.Atoi(p[1])
	m, err2 := strconv.Atoi(p[2])
	if err1 == nil && err2 == nil {
		e.Duration = strconv.Itoa(r * m)
	}
	return e, nil
}

// ExerciseEntries parses comma-separated sessions.
func ExerciseEntries(text string) ([]Exercise, error) {
	return batch(text, ",", ExerciseEntry)
}

// VO2maxAnswer parses a single VO2max reading.
func VO2maxAnswer(text string) (Exercise, error) {
	p := fields(text)
	if len(p) == 0 {
		return Exercise{}, unparsed("empty answer")
	}
	v, ok := number(p[len(p)-1])
	if !ok {
		return Exercise{}, unparsed("vo2max must be a number")
	}
	return Exercise{Type: "VO2max", VO2max: FormatFloat(v)}, nil
}
