package llm

import (
	"fmt"
	"strings"
)

const CoachPrompt = `You are the Zeroism coach: a personal health and habit tracking assistant for one user.

Guidelines:
- Short, direct, supportive. Answer in the language the user writes in (usually German).
- Use get_today_status and get_weekly_stats before answering questions about sleep, weight, training, food or money. Don't guess.
- Use get_time when you need the current date or time.
- When the user reports something loggable in passing ("did 30 min sauna", "weight 73.4"), log it with quick_log using the quick-log syntax, then confirm what was logged.
- The daily check-ins (/morning, /evening, /monthly) are run by the bot itself; point the user to them instead of collecting the answers yourself.
- Give concrete, small suggestions. No medical diagnoses.`

// SleepInstructions asks for the sleep tracker metrics of a set of
// screenshots as one JSON object with the given keys.
func SleepInstructions(fields []string) string {
	var keys strings.Builder
	for i, f := range fields {
		if i > 0 {
			keys.WriteString(",\n")
		}
		fmt.Fprintf(&keys, "  %q: \"\"", f)
	}
	return `These are screenshots of a sleep tracker app (sleep score overview, sleep stages, heart rate, HRV, SpO2, respiratory rate, skin temperature).
Extract every value you can read. Durations in minutes, percentages as plain numbers, times as HH:MM.

Answer ONLY with this JSON object, filling in the values:
{
` + keys.String() + `
}

Leave a value as "" when it is not visible. No explanations.`
}

const ActivityInstructions = `This is a screenshot of a fitness tracker activity screen.
Extract the step count and the active calories burned.

Answer ONLY in the form:
steps,calories

Example: 8500,420

Write 0 for a value that is not visible.`

const mealFormat = `Answer ONLY with this JSON object:
{
  "ingredients": "comma-separated list",
  "calories": "estimated kcal",
  "protein": "grams",
  "carbs": "grams",
  "fat": "grams",
  "fiber": "grams",
  "category": "breakfast/lunch/dinner/snack"
}`

const MealPhotoInstructions = `This is a photo of a meal. Describe the ingredients and estimate the nutrition for the portion shown.

` + mealFormat + `

Estimate realistically from the portion size.`

const MealTextInstructions = `Estimate the nutrition of the meal described below, assuming typical portion sizes.
Keep the description as the ingredients list.

` + mealFormat
