package parse

import (
	"strconv"
	"strings"
)

// Vitals holds body measurements. Empty fields were not given and must not
// overwrite stored values.
type Vitals struct {
	Weight  string
	EarTemp string
	BodyFat string
	Waist   string
	BPSys   string
	BPDia   string
}

// Fields returns the given measurements keyed by column name.
func (v Vitals) Fields() map[string]string {
	out := map[string]string{}
	for name, val := range map[string]string{
		"weight":   v.Weight,
		"ear_temp": v.EarTemp,
		"body_fat": v.BodyFat,
		"waist":    v.Waist,
		"bp_sys":   v.BPSys,
		"bp_dia":   v.BPDia,
	} {
		if val != "" {
			out[name] = val
		}
	}
	return out
}

// numbers parses the first n tokens as decimals.
func numbers(text string, n int, what string) ([]string, error) {
	p := fields(text)
	if len(p) < n {
		return nil, unparsed("%s needs %d values, got %d", what, n, len(p))
	}
	out := make([]string, n)
	for i := range n {
		f, ok := number(p[i])
		if !ok {
			return nil, unparsed("%s: %q is not a number", what, p[i])
		}
		out[i] = FormatFloat(f)
	}
	return out, nil
}

// VitalsAnswer parses "weight ear_temp", plus "sys dia" when withBP is set.
func VitalsAnswer(text string, withBP bool) (Vitals, error) {
	n := 2
	if withBP {
		n = 4
	}
	v, err := numbers(text, n, "vitals")
	if err != nil {
		return Vitals{}, err
	}
	out := Vitals{Weight: v[0], EarTemp: v[1]}
	if withBP {
		out.BPSys, out.BPDia = v[2], v[3]
	}
	return out, nil
}

// MeasurementsAnswer parses "bodyfat waist".
func MeasurementsAnswer(text string) (Vitals, error) {
	v, err := numbers(text, 2, "measurements")
	if err != nil {
		return Vitals{}, err
	}
	return Vitals{BodyFat: v[0], Waist: v[1]}, nil
}

// SingleVital parses one numeric measurement such as "73,5".
func SingleVital(text string) (string, error) {
	v, err := numbers(text, 1, "value")
	if err != nil {
		return "", err
	}
	return v[0], nil
}

// BloodPressure parses "sys dia".
func BloodPressure(text string) (Vitals, error) {
	v, err := numbers(text, 2, "blood pressure")
	if err != nil {
		return Vitals{}, err
	}
	return Vitals{BPSys: v[0], BPDia: v[1]}, nil
}

type Activity struct {
	Steps    int
	Calories string
}

// Fields returns the activity values keyed by column name. Unknown
// calories are left out so an earlier value survives.
func (a Activity) Fields() map[string]string {
	out := map[string]string{"steps": strconv.Itoa(a.Steps)}
	if a.Calories != "" {
		out["active_calories"] = a.Calories
	}
	return out
}

func stepCount(tok string) (int, bool) {
	tok = strings.NewReplacer(".", "", ",", "", "'", "").Replace(strings.TrimSpace(tok))
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ActivityAnswer parses "steps [active_calories]". Thousands separators in
// the step count are accepted.
func ActivityAnswer(text string) (Activity, error) {
	p := fields(text)
	if len(p) == 0 {
		return Activity{}, unparsed("activity needs a step count")
	}
	steps, ok := stepCount(p[0])
	if !ok {
		return Activity{}, unparsed("steps %q is not a number", p[0])
	}
	a := Activity{Steps: steps}
	if len(p) > 1 {
		a.Calories = p[1]
	}
	return a, nil
}

// DecodeActivity reads the "steps,calories" answer the oracle gives for a
// fitness tracker screenshot.
func DecodeActivity(answer string) (Activity, error) {
	for _, line := range strings.Split(answer, "\n") {
		steps, cal, ok := strings.Cut(strings.TrimSpace(line), ",")
		if !ok {
			continue
		}
		n, ok := stepCount(steps)
		if !ok {
			continue
		}
		return Activity{Steps: n, Calories: strings.TrimSpace(cal)}, nil
	}
	return Activity{}, unparsed("no steps,calories pair in answer")
}
