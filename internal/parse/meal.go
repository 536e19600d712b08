package parse

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Meal is a logged meal with estimated macros. Numbers are kept as the
// model gave them; Calories/Protein are the rounded values used for totals.
type Meal struct {
	Ingredients string
	Calories    string
	Protein     string
	Carbs       string
	Fat         string
	Fiber       string
	Category    string
}

// Kcal is the calorie estimate as a whole number, 0 when unknown.
func (m Meal) Kcal() int { return roundedNumber(m.Calories) }

// ProteinGrams is the protein estimate as a whole number, 0 when unknown.
func (m Meal) ProteinGrams() int { return roundedNumber(m.Protein) }

func roundedNumber(s string) int {
	f, ok := LeadingNumber(s)
	if !ok {
		return 0
	}
	return int(math.Round(f))
}

// leadingNumber keeps the numeric prefix of "650 kcal" or "~40g".
// LeadingNumber reads the number at the start of a loosely written value
// such as "~650 kcal" or "87,5".
func LeadingNumber(s string) (float64, bool) {
	return number(leadingNumber(s))
}

func leadingNumber(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "~≈ca. ")
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	return s[:end]
}

// MealDescriptions splits a text answer into one description per meal.
func MealDescriptions(text string) []string {
	return splitEntries(text, "|")
}

// DecodeMeal reads the macro estimate out of an oracle answer.
func DecodeMeal(answer string) (Meal, error) {
	obj, err := FindObject(answer)
	if err != nil {
		return Meal{}, err
	}
	r := gjson.Parse(obj)
	m := Meal{
		Ingredients: r.Get("ingredients").String(),
		Calories:    r.Get("calories").String(),
		Protein:     r.Get("protein").String(),
		Carbs:       r.Get("carbs").String(),
		Fat:         r.Get("fat").String(),
		Fiber:       r.Get("fiber").String(),
		Category:    r.Get("category").String(),
	}
	if m.Ingredients == "" && m.Calories == "" {
		return Meal{}, unparsed("no meal estimate in answer")
	}
	return m, nil
}
