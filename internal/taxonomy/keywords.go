package taxonomy

// Keywords returns the hand-authored phrase list representing a category's
// meaning. The scorer embeds these to build the category prototype.
func Keywords(c Category) []string {
	return categoryKeywords[c]
}

var categoryKeywords = map[Category][]string{
	Scene: {
		"scene", "setting", "environment", "location", "place",
		"background", "surroundings", "landscape", "area",
	},
	People: {
		"people", "person", "crowd", "faces", "group",
		"man", "woman", "children", "who is there",
	},
	Activity: {
		"activity", "doing", "happening", "action", "movement",
		"event", "gesture", "interaction",
	},
	Emotion: {
		"emotion", "feeling", "mood", "expression", "happy",
		"sad", "angry", "excited", "peaceful",
	},
	Atmosphere: {
		"atmosphere", "vibe", "ambiance", "tone", "aura",
		"general mood", "overall feeling",
	},
	Color: {
		"color", "colors", "hue", "shades", "tints",
		"tones", "palette", "vivid", "bright", "dark",
	},
	Text: {
		"text", "sign", "words", "writing", "message",
		"letter", "caption", "label", "read", "say",
	},
	Objects: {
		"objects", "items", "things", "furniture", "tools",
		"what is in the picture", "belongings",
	},
	Detail: {
		"detail", "details", "specific", "precise", "thorough",
		"in depth", "elaborate", "fine points",
	},
	Conciseness: {
		"conciseness", "summary", "summarize", "brief", "short",
		"concise", "succinct", "overview", "highlight",
	},
}
