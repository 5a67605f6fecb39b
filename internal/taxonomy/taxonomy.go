// Package taxonomy defines the fixed description-category taxonomy shared by
// the scorer, training-set builder and predictor, plus the message and
// feedback enumerations used on stored messages.
package taxonomy

import "fmt"

// Category is one label in the description-focus taxonomy.
type Category string

const (
	Scene       Category = "SCENE"
	People      Category = "PEOPLE"
	Activity    Category = "ACTIVITY"
	Emotion     Category = "EMOTION"
	Atmosphere  Category = "ATMOSPHERE"
	Color       Category = "COLOR"
	Text        Category = "TEXT"
	Objects     Category = "OBJECTS"
	Detail      Category = "DETAIL"
	Conciseness Category = "CONCISENESS"
)

// categories is the canonical ordering. The position of a category here is
// its feature-vector index; it must never change between training a model
// and predicting with it.
var categories = []Category{
	Scene,
	People,
	Activity,
	Emotion,
	Atmosphere,
	Color,
	Text,
	Objects,
	Detail,
	Conciseness,
}

// Categories returns the canonical ordered taxonomy. Callers must not mutate
// the returned slice.
func Categories() []Category {
	return categories
}

// Count returns the number of categories in the taxonomy.
func Count() int {
	return len(categories)
}

// Index returns the feature-vector position of c, or -1 if c is not part of
// the taxonomy.
func Index(c Category) int {
	for i, cat := range categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// ParseCategory validates a stored category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if Index(c) < 0 {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// MessageType identifies the author of a stored message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageSystem    MessageType = "system"
	MessageAssistant MessageType = "assistant"
)

// Feedback is a user-supplied tag on an assistant message. Neutral means no
// explicit feedback was given.
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
	FeedbackNeutral  Feedback = "neutral"
)

// ParseFeedback validates a feedback value from the HTTP surface.
func ParseFeedback(s string) (Feedback, error) {
	switch Feedback(s) {
	case FeedbackPositive, FeedbackNegative, FeedbackNeutral:
		return Feedback(s), nil
	}
	return "", fmt.Errorf("unknown feedback %q", s)
}
