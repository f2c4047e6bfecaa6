// Package simple answers questions from a fixed keyword table without any
// network access.
package simple

import (
	"fmt"
	"strings"
)

var exact = map[string]string{
	"hello":                         "Hello! How can I help you today?",
	"hi":                            "Hi there! What would you like to know?",
	"what is your name":             "I'm an AI assistant powered by Hugging Face models.",
	"how are you":                   "I'm doing well, thank you for asking!",
	"what is the capital of france": "The capital of France is Paris.",
	"what is ai":                    "Artificial Intelligence (AI) is the simulation of human intelligence in machines that are programmed to think and learn.",
	"who are you":                   "I'm an AI assistant designed to help answer your questions and have conversations.",
	"thank you":                     "You're welcome! Is there anything else I can help you with?",
	"bye":                           "Goodbye! Feel free to ask me anything anytime.",
	"what is python":                "Python is a high-level, interpreted programming language known for its simplicity and versatility.",
	"what is machine learning":      "Machine Learning is a subset of AI that enables computers to learn and make decisions from data without being explicitly programmed.",
}

type keywordRule struct {
	keywords []string
	answer   string
}

// Checked in order; the first rule with any matching keyword wins.
var rules = []keywordRule{
	{[]string{"capital", "france"}, "The capital of France is Paris."},
	{[]string{"python", "programming"}, "Python is a popular programming language used for web development, data science, AI, and more."},
	{[]string{"ai", "artificial intelligence"}, "AI stands for Artificial Intelligence - technology that enables machines to simulate human intelligence."},
}

// Respond returns the canned answer for question.
func Respond(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))

	if answer, ok := exact[q]; ok {
		return answer
	}

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.answer
			}
		}
	}

	if strings.HasPrefix(q, "what is") {
		topic := strings.TrimSpace(strings.ReplaceAll(q, "what is", ""))
		return fmt.Sprintf("I'd be happy to explain %s, but I'm currently running in simple mode. For detailed explanations, please try again when the AI models are available.", topic)
	}

	if strings.Contains(question, "?") {
		return fmt.Sprintf("That's an interesting question about '%s'. I'm currently in simple response mode, but I've saved your question for a more detailed answer when AI models are available.", question)
	}

	return fmt.Sprintf("Thank you for your message: '%s'. I'm currently providing simple responses while working to restore full AI capabilities.", question)
}
