package llm

var AgentTools = []Tool{
	{
		Name:        "get_time",
		Description: "Get the current local date, time and weekday.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_today_status",
		Description: "Get today's logged sleep score, weight and this week's sauna count.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_weekly_stats",
		Description: "Get this week's averages and totals: sleep, HRV, training days, sauna, calories, protein, mood, spending, learning, supplement compliance and the training streak.",
		Parameters:  obj(nil),
	},
	{
		Name:        "quick_log",
		Description: "Log one entry with the quick-log syntax, e.g. 'weight 73.5', 'bp 118 75', 'steps 8500', 'mood 7 6 8', 'gym 45 push 8', 'sauna 20 80 3x7', 'walk 45', 'meal oats with berries', 'craving thc 7', 'learn spanish 30 7', 'spent 12.50 food lunch', 'supps ja', 'gratitude the sea'.",
		Parameters: objReq(map[string]any{
			"entry": prop("string", "The quick-log line"),
		}, "entry"),
	},
}

// Helper functions for building JSON Schema objects.

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func obj(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func objReq(properties map[string]any, required ...string) map[string]any {
	s := obj(properties)
	s["required"] = required
	return s
}
