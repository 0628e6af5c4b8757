package responder

// bank holds the reply templates for one sentiment bucket. Topic-aware
// templates carry a "{topic}" placeholder substituted with the topic's
// display name.
type bank struct {
	withTopic    []string
	withoutTopic []string
	followUp     []string
}

// greetingKeywords match whole messages (exact or prefix, case-insensitive).
var greetingKeywords = []string{
	"hello", "hi", "hey", "greetings", "good morning", "good afternoon", "good evening",
}

// goodbyeKeywords match as substrings anywhere in the message.
var goodbyeKeywords = []string{
	"bye", "goodbye", "see you", "take care", "thanks bye", "that's all",
}

var greetingTemplates = []string{
	"Hello! How can I help you today?",
	"Hi there! What brings you here?",
	"Hey! What can I do for you?",
	"Welcome! How may I assist you?",
}

var goodbyeTemplates = []string{
	"Goodbye! Have a great day!",
	"Take care! Feel free to come back anytime.",
	"See you later! Thanks for chatting.",
	"Bye! Hope I was helpful today.",
}

// buckets maps the lower-case sentiment bucket key to its template bank.
var buckets = map[string]bank{
	"negative": {
		withTopic: []string{
			"I'm sorry to hear about the {topic} issue. Let me help you with that.",
			"I understand your frustration with the {topic}. What specifically went wrong?",
			"That's concerning about the {topic}. Can you tell me more details?",
			"I apologize for the {topic} problem. Let's work on resolving this together.",
			"Thank you for bringing up the {topic} issue. How can I make this right?",
		},
		withoutTopic: []string{
			"I'm sorry to hear that. Tell me more about what's bothering you.",
			"That sounds frustrating. How can I help?",
			"I understand. What specifically is the issue?",
			"Let's see what we can do about this. What's going on?",
			"I hear your concern. Can you provide more details?",
		},
		followUp: []string{
			"I'm still here to help. What else is troubling you?",
			"Let's continue working on this. What other concerns do you have?",
			"I want to make sure we address everything. What else?",
		},
	},
	"positive": {
		withTopic: []string{
			"That's wonderful to hear about the {topic}! Is there anything else I can help with?",
			"I'm so glad the {topic} met your expectations!",
			"Great feedback about the {topic}! We appreciate it.",
			"Fantastic! Happy to hear the {topic} worked out well for you.",
		},
		withoutTopic: []string{
			"That's great to hear! What else can I help with?",
			"Wonderful! I'm glad you're happy.",
			"Awesome! Is there anything else you need?",
			"That's fantastic! Thanks for sharing.",
			"I'm pleased to hear that! Anything else on your mind?",
		},
		followUp: []string{
			"Glad things are improving! Anything else?",
			"That's progress! What else can I do for you?",
			"Great! Is there anything more you'd like to discuss?",
		},
	},
	"neutral": {
		withTopic: []string{
			"I see you're asking about the {topic}. What would you like to know?",
			"Got it, this is about the {topic}. How can I assist?",
			"Understood. What specifically about the {topic} do you need help with?",
		},
		withoutTopic: []string{
			"I see. Tell me more.",
			"Got it. How can I assist you?",
			"Okay. What do you need help with?",
			"Alright. What's on your mind?",
			"I'm here to help. What would you like to discuss?",
		},
		followUp: []string{
			"Okay, what else would you like to talk about?",
			"Got it. Anything else I can help with?",
			"I see. What other questions do you have?",
		},
	},
}
