package records

import (
	"fmt"

	"github.com/chris/zeroism/internal/parse"
)

// Table is a named table with a fixed column order. Column 0 is always the
// date key and row 1 holds the column names.
type Table struct {
	Name    string
	Columns []string
}

// Index returns the 0-based position of a column, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Row lays values out in column order. Unknown names are an error so a typo
// can never shift data into a neighbouring column.
func (t Table) Row(values map[string]string) ([]string, error) {
	row := make([]string, len(t.Columns))
	for name, v := range values {
		i := t.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("%s has no column %q", t.Name, name)
		}
		row[i] = v
	}
	return row, nil
}

// Group is a contiguous run of columns in the composite health table that
// one writer owns.
type Group struct {
	Name   string
	Fields []string
}

// Start is the 0-based column of the group's first field.
func (g Group) Start() int { return Health.Index(g.Fields[0]) }

// End is the 0-based column of the group's last field.
func (g Group) End() int { return g.Start() + len(g.Fields) - 1 }

// Range renders the group's columns as "B:AF".
func (g Group) Range() string {
	return ColumnLetter(g.Start()) + ":" + ColumnLetter(g.End())
}

var (
	SleepGroup = Group{Name: "sleep", Fields: parse.SleepFields}

	VitalsGroup = Group{Name: "vitals", Fields: []string{
		"weight", "ear_temp", "body_fat", "waist", "bp_sys", "bp_dia",
	}}

	SubjectiveGroup = Group{Name: "subjective", Fields: []string{
		"rested", "getting_up", "dreams", "body", "clarity",
		"subjective_avg", "slept_through", "wake_count", "fall_asleep_speed",
	}}

	CutoffsGroup = Group{Name: "cutoffs", Fields: []string{
		"thc_ok", "thc_time", "nicotine_ok", "nicotine_time", "caffeine_ok",
		"caffeine_time", "food_ok", "food_time", "screens_ok", "screens_time",
	}}

	EnvironmentGroup = Group{Name: "environment", Fields: []string{
		"darkness", "noise", "partner", "device_in_room", "room_temp",
	}}

	ActivityGroup = Group{Name: "activity", Fields: []string{
		"steps", "active_calories",
	}}

	// HealthGroups in column order.
	HealthGroups = []Group{SleepGroup, VitalsGroup, SubjectiveGroup, CutoffsGroup, EnvironmentGroup, ActivityGroup}
)

// Health is the composite table: one row per date, filled group by group.
var Health = Table{Name: "HEALTH", Columns: healthColumns()}

func healthColumns() []string {
	cols := []string{"date"}
	for _, g := range HealthGroups {
		cols = append(cols, g.Fields...)
	}
	return cols
}

// Append-only tables.
var (
	Exercise = Table{Name: "EXERCISE", Columns: []string{
		"date", "time", "type", "duration", "location", "workout_type", "intensity",
		"rpe", "stretching", "sauna_temp", "sauna_rounds", "sauna_time_per_round",
		"vo2max", "notes",
	}}
	Meals = Table{Name: "MEALS", Columns: []string{
		"date", "time", "meal_num", "ingredients", "calories", "protein", "carbs",
		"fat", "fiber", "category", "before_cutoff", "notes",
	}}
	Mood = Table{Name: "MOOD", Columns: []string{
		"date", "time_of_day", "mood", "energy", "focus", "anxiety", "stress",
		"motivation", "social_battery", "trigger", "notes",
	}}
	Supplements = Table{Name: "SUPPLEMENTS", Columns: []string{
		"date", "blueprint_stack", "omega3", "probutyrate", "collagen", "nac", "notes",
	}}
	Habits = Table{Name: "HABITS", Columns: []string{
		"date", "sunlight_morning", "blue_light_glasses", "meditation", "breathwork",
		"reading", "social_interaction", "grateful_for", "hydration", "notes",
	}}
	Learning = Table{Name: "LEARNING", Columns: []string{
		"date", "start_time", "end_time", "duration", "task", "category",
		"focus_quality", "notes",
	}}
	Cravings = Table{Name: "CRAVINGS", Columns: []string{
		"date", "time", "type", "intensity", "before_cutoff", "action_taken", "notes",
	}}
	Finance = Table{Name: "FINANCE", Columns: []string{
		"date", "amount", "category", "description", "necessary", "impulse", "notes",
	}}
)

// Tables lists every table the assistant writes.
var Tables = []Table{Health, Exercise, Meals, Mood, Supplements, Habits, Learning, Cravings, Finance}

// Lookup finds a table by name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
