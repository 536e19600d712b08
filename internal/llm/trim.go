package llm

// Window bounds a chat history: at most limit messages, oldest evicted
// first, then trimmed to the token budget. A cut never leaves a tool result
// without the assistant message that requested it.
func Window(history []Message, limit, maxTokens int) []Message {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
		for len(history) > 0 && history[0].ToolCallID != "" {
			history = history[1:]
		}
	}
	return TrimMessages(history, maxTokens)
}

// TrimMessages drops the oldest exchanges until the history fits maxTokens.
// An assistant tool call and its results are one exchange and go together;
// the newest exchange is always kept.
func TrimMessages(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}
	units := exchanges(messages)

	total := 0
	for _, u := range units {
		total += u.tokens
	}
	if total <= maxTokens {
		return messages
	}

	first := 0
	for first < len(units)-1 && total > maxTokens {
		total -= units[first].tokens
		first++
	}
	var out []Message
	for _, u := range units[first:] {
		out = append(out, u.messages...)
	}
	return out
}

type exchange struct {
	messages []Message
	tokens   int
}

// exchanges splits messages into units that are kept or dropped whole.
func exchanges(messages []Message) []exchange {
	var units []exchange
	for i := 0; i < len(messages); {
		u := exchange{messages: []Message{messages[i]}, tokens: EstimateMessageTokens(messages[i])}
		callsTools := messages[i].Role == "assistant" && len(messages[i].ToolCalls) > 0
		i++
		for callsTools && i < len(messages) && messages[i].ToolCallID != "" {
			u.messages = append(u.messages, messages[i])
			u.tokens += EstimateMessageTokens(messages[i])
			i++
		}
		units = append(units, u)
	}
	return units
}
