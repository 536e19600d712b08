package parse

import (
	"math"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// neutral is the default for a 1-10 rating token that is not a number.
const neutral = 5

type SubjectiveSleep struct {
	Rested        int
	GettingUp     int
	Dreams        int
	Body          int
	Clarity       int
	SleptThrough  string // YES/NO
	WakeCount     int
	FallAsleepFor string // schnell/normal/langsam, free text
}

// Average is the mean of the five ratings rounded to one decimal.
func (s SubjectiveSleep) Average() float64 {
	sum := s.Rested + s.GettingUp + s.Dreams + s.Body + s.Clarity
	return math.Round(float64(sum)/5*10) / 10
}

// SubjectiveSleepAnswer parses
// "rested getting_up dreams body clarity slept_through wake_count speed".
func SubjectiveSleepAnswer(text string) (SubjectiveSleep, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 8 {
		return SubjectiveSleep{}, unparsed("need 8 values, got %d", len(p))
	}
	return SubjectiveSleep{
		Rested:        intOr(p[0], neutral),
		GettingUp:     intOr(p[1], neutral),
		Dreams:        intOr(p[2], neutral),
		Body:          intOr(p[3], neutral),
		Clarity:       intOr(p[4], neutral),
		SleptThrough:  Bool(p[5]),
		WakeCount:     intOr(p[6], 0),
		FallAsleepFor: p[7],
	}, nil
}

type Environment struct {
	Darkness     int
	Noise        int
	Partner      string
	DeviceInRoom string
	RoomTemp     string
}

// EnvironmentAnswer parses "darkness noise partner device [room_temp]".
func EnvironmentAnswer(text string) (Environment, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 4 {
		return Environment{}, unparsed("need 4 values, got %d", len(p))
	}
	env := Environment{
		Darkness:     intOr(p[0], neutral),
		Noise:        intOr(p[1], neutral),
		Partner:      Bool(p[2]),
		DeviceInRoom: Bool(p[3]),
	}
	if len(p) > 4 {
		env.RoomTemp = p[4]
	}
	return env, nil
}

// CutoffNames are the evening cutoffs in answer order.
var CutoffNames = [5]string{"thc", "nicotine", "caffeine", "food", "screens"}

type Cutoff struct {
	Name string
	OK   string // YES/NO
	Time string // when the cutoff was broken, if given
}

type Cutoffs [5]Cutoff

// Violations counts the cutoffs that were not kept.
func (c Cutoffs) Violations() int {
	n := 0
	for _, x := range c {
		if x.OK == No {
			n++
		}
	}
	return n
}

// CutoffsAnswer parses five tokens, each "ja" or the time the cutoff was broken.
func CutoffsAnswer(text string) (Cutoffs, error) {
	p := fields(strings.ReplaceAll(strings.ToLower(text), ",", " "))
	if len(p) < 5 {
		return Cutoffs{}, unparsed("need 5 values, got %d", len(p))
	}
	var out Cutoffs
	for i, name := range CutoffNames {
		v, ok := YesNo(p[i])
		switch {
		case ok && v == Yes:
			out[i] = Cutoff{Name: name, OK: Yes}
		case ok:
			out[i] = Cutoff{Name: name, OK: No}
		default:
			out[i] = Cutoff{Name: name, OK: No, Time: v}
		}
	}
	return out, nil
}

var firstNumber = regexp.MustCompile(`\d+`)

// ReadingMinutes extracts minutes read; "nein" or no number means 0.
func ReadingMinutes(text string) int {
	if IsNone(text) {
		return 0
	}
	m := firstNumber.FindString(text)
	if m == "" {
		return 0
	}
	return intOr(m, 0)
}

// SleepFields are the sleep-tracker metrics in column order.
var SleepFields = []string{
	"sleep_score", "sleep_quality", "time_asleep_min", "time_in_bed_min",
	"sleep_efficiency", "sleep_goal_gap", "time_awake_ratio", "sleeping_hr",
	"sleeping_hrv", "skin_temp", "skin_temp_offset", "spo2", "respiratory_rate",
	"awake_min", "awake_pct", "rem_min", "rem_pct", "light_min", "light_pct",
	"deep_min", "deep_pct", "hr_awake", "hr_rem", "hr_light", "hr_deep",
	"rem_latency", "time_falling_asleep", "time_final_wake", "sleep_stability",
	"bedtime", "wake_time",
}

// SleepMetrics holds whatever the tracker screenshots showed, keyed by
// SleepFields name. Missing metrics are absent.
type SleepMetrics map[string]string

func (m SleepMetrics) Score() string { return m["sleep_score"] }

// DecodeSleepMetrics locates the JSON object in an oracle answer and keeps
// the known, non-empty sleep fields. An answer with none of them is unparsed.
func DecodeSleepMetrics(answer string) (SleepMetrics, error) {
	obj, err := FindObject(answer)
	if err != nil {
		return nil, err
	}
	res := gjson.Parse(obj)
	out := SleepMetrics{}
	for _, f := range SleepFields {
		if v := strings.TrimSpace(res.Get(f).String()); v != "" {
			out[f] = v
		}
	}
	if len(out) == 0 {
		return nil, unparsed("no sleep metrics in answer")
	}
	return out, nil
}
