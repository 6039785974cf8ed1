package catalog

// builtinIntents is the default intent table, in match-priority order.
func builtinIntents() []Intent {
	return []Intent{
		{
			ID:        "greeting",
			Phrases:   []string{"hello", "hi", "hey", "good morning", "good evening", "namaste", "what's up", "how are you"},
			Responses: []string{"Hello! How can I help?", "Hi there!", "Good to see you!"},
		},
		{
			ID:        "time",
			Phrases:   []string{"time", "what time", "current time", "clock", "what's the time"},
			Responses: []string{"The current time is {}"},
		},
		{
			ID:        "date",
			Phrases:   []string{"date", "what date", "today", "what day"},
			Responses: []string{"Today is {}"},
		},
		{
			ID:        "weather",
			Phrases:   []string{"weather", "temperature", "rain", "forecast", "climate", "hot", "cold"},
			Responses: []string{"Let me check the weather for you"},
		},
		{
			ID:       "open_browser",
			Phrases:  []string{"open chrome", "launch browser", "start chrome", "open google", "browse internet"},
			Entities: map[string]string{"app": "chrome"},
		},
		{
			ID:       "open_youtube",
			Phrases:  []string{"open youtube", "launch youtube", "youtube", "watch videos"},
			Entities: map[string]string{"app": "youtube"},
		},
		{
			ID:       "open_music",
			Phrases:  []string{"play music", "open spotify", "music", "songs", "tune"},
			Entities: map[string]string{"app": "spotify"},
		},
		{
			ID:       "open_code",
			Phrases:  []string{"open vscode", "code editor", "programming", "vs code", "coding"},
			Entities: map[string]string{"app": "vscode"},
		},
		{
			ID:       "volume_up",
			Phrases:  []string{"volume up", "increase volume", "louder", "turn up", "raise volume"},
			Entities: map[string]string{"action": "increase"},
		},
		{
			ID:       "volume_down",
			Phrases:  []string{"volume down", "decrease volume", "quieter", "turn down", "lower volume"},
			Entities: map[string]string{"action": "decrease"},
		},
		{
			ID:       "mute",
			Phrases:  []string{"mute", "silence", "turn off sound", "no sound"},
			Entities: map[string]string{"action": "mute"},
		},
		{
			ID:        "system_info",
			Phrases:   []string{"system info", "computer specs", "hardware", "memory usage", "cpu"},
			Responses: []string{"Let me check your system information"},
		},
		{
			ID:        "screenshot",
			Phrases:   []string{"screenshot", "capture screen", "take picture", "screen capture"},
			Responses: []string{"Taking a screenshot"},
		},
		{
			ID:        "joke",
			Phrases:   []string{"joke", "funny", "make me laugh", "tell joke", "humor"},
			Responses: []string{"Here's a joke for you"},
		},
		{
			ID:        "news",
			Phrases:   []string{"news", "headlines", "current events", "what's happening"},
			Responses: []string{"Let me get the latest news"},
		},
		{
			ID:        "reminder",
			Phrases:   []string{"remind me", "set reminder", "don't forget", "remember"},
			Responses: []string{"I'll remind you about that"},
		},
		{
			ID:        "search",
			Phrases:   []string{"search for", "look up", "find", "google", "what is"},
			Responses: []string{"Searching for that information"},
		},
		{
			ID:        "shutdown",
			Phrases:   []string{"shutdown", "turn off computer", "power off", "shut down"},
			Responses: []string{"Shutting down the system"},
		},
		{
			ID:        "restart",
			Phrases:   []string{"restart", "reboot", "restart computer"},
			Responses: []string{"Restarting the system"},
		},
		{
			ID:        "exit",
			Phrases:   []string{"exit", "quit", "goodbye", "bye", "close jarvis", "stop"},
			Responses: []string{"Goodbye! Have a great day!"},
		},
	}
}
