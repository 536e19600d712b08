package parse

import (
	"slices"
	"strings"
)

type Craving struct {
	Type      string
	Intensity string
	GaveIn    string // YES/NO
}

// CravingEntry parses "type intensity [gave_in]".
func CravingEntry(text string) (Craving, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 2 {
		return Craving{}, unparsed("craving needs type and intensity")
	}
	c := Craving{Type: p[0], Intensity: p[1], GaveIn: No}
	if len(p) > 2 {
		c.GaveIn = Bool(p[2])
	}
	return c, nil
}

func CravingEntries(text string) ([]Craving, error) {
	return batch(text, ",", CravingEntry)
}

type Expense struct {
	Amount      float64
	Category    string
	Description string
	Necessary   string // YES/NO
	Impulse     string // YES/NO
}

// ExpenseEntry parses "amount category [description] [n|i]".
func ExpenseEntry(text string) (Expense, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 2 {
		return Expense{}, unparsed("expense needs amount and category")
	}
	amount, ok := number(strings.TrimPrefix(p[0], "€"))
	if !ok {
		return Expense{}, unparsed("amount %q is not a number", p[0])
	}
	e := Expense{Amount: amount, Category: p[1], Necessary: No, Impulse: No}
	var desc []string
	for _, tok := range p[2:] {
		switch tok {
		case "n":
			e.Necessary = Yes
		case "i":
			e.Impulse = Yes
		default:
			desc = append(desc, tok)
		}
	}
	e.Description = strings.Join(desc, " ")
	return e, nil
}

func ExpenseEntries(text string) ([]Expense, error) {
	return batch(text, ",", ExpenseEntry)
}

// Total sums the amounts of a batch of expenses.
func Total(es []Expense) float64 {
	var t float64
	for _, e := range es {
		t += e.Amount
	}
	return t
}

type Learning struct {
	Task     string
	Duration string // minutes
	Category string // uni/work/personal/admin
	Focus    string // 1-10
}

// LearningEntry parses "task minutes category focus".
func LearningEntry(text string) (Learning, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 4 {
		return Learning{}, unparsed("learning needs task, minutes, category and focus")
	}
	return Learning{Task: p[0], Duration: p[1], Category: p[2], Focus: p[3]}, nil
}

func LearningEntries(text string) ([]Learning, error) {
	return batch(text, ",", LearningEntry)
}

// QuickLearning parses the one-shot form "topic minutes focus [category]".
func QuickLearning(text string) (Learning, error) {
	p := fields(strings.ToLower(text))
	if len(p) < 3 {
		return Learning{}, unparsed("learn needs topic, minutes and focus")
	}
	l := Learning{Task: p[0], Duration: p[1], Focus: p[2], Category: "personal"}
	if len(p) > 3 {
		l.Category = p[3]
	}
	return l, nil
}

type Habits struct {
	SunlightMin   string
	BlueLight     string // YES/NO
	MeditationMin string
	BreathworkMin string
	Social        string
	Hydration     string
	ReadingMin    string
	GratefulFor   string
}

// HabitsAnswer parses "sunlight bluelight meditation breath social hydration
// [gratitude...]".
func HabitsAnswer(text string) (Habits, error) {
	p := fields(text)
	if len(p) < 6 {
		return Habits{}, unparsed("need 6 values, got %d", len(p))
	}
	return Habits{
		SunlightMin:   p[0],
		BlueLight:     Bool(p[1]),
		MeditationMin: p[2],
		BreathworkMin: p[3],
		Social:        p[4],
		Hydration:     p[5],
		GratefulFor:   strings.Join(p[6:], " "),
	}, nil
}

type Supplements struct {
	Stack       string
	Omega3      string
	ProButyrate string
	Collagen    string
	NAC         string
}

var supplementAliases = map[string][]string{
	"omega3":      {"omega", "omega3"},
	"probutyrate": {"probutyrate", "pro"},
	"collagen":    {"collagen", "col"},
	"nac":         {"nac"},
}

// SupplementsAnswer parses "ja" (full stack taken) or "nein omega nac ...".
// It always succeeds: anything that is not an affirmation lists extras.
func SupplementsAnswer(text string) Supplements {
	p := fields(strings.ReplaceAll(strings.ToLower(text), ",", " "))
	if len(p) > 0 {
		if v, ok := YesNo(p[0]); ok && v == Yes {
			return Supplements{Stack: Yes, Omega3: Yes, ProButyrate: Yes, Collagen: Yes, NAC: Yes}
		}
	}
	has := func(key string) string {
		for _, alias := range supplementAliases[key] {
			if slices.Contains(p, alias) {
				return Yes
			}
		}
		return No
	}
	return Supplements{
		Stack:       No,
		Omega3:      has("omega3"),
		ProButyrate: has("probutyrate"),
		Collagen:    has("collagen"),
		NAC:         has("nac"),
	}
}
