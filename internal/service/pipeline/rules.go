package pipeline

import "regexp"

// Rule pairs a pattern with a canned response. Rules are evaluated in
// order against the raw user text before any network call; the first
// match answers the request outright.
type Rule struct {
	Pattern  *regexp.Regexp
	Response string
}

// DefaultRules answers identity questions without touching the network.
func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern:  regexp.MustCompile(`(?i)\b(what'?s\s*(your|yr)\s*name|who\s*(are|r)\s*you|your\s*name)\b`),
			Response: "My name is FRIDAY AI, powered by the Gemini 2.5 API.",
		},
		{
			Pattern:  regexp.MustCompile(`(?i)\b(who\s*(made|created|developed|built|trained|programmed)\s*(you|friday)|developers?|creators?|trainers?|google|built|trained)\b`),
			Response: "I was developed by Aditya and Vaidikdevsen, powered by the Gemini 2.5 API.",
		},
		{
			Pattern:  regexp.MustCompile(`(?i)\b(is\s*(this|you|friday)\s*(a\s*company|company)|company\s*(behind|of)|employees)\b`),
			Response: "No, I'm not a company. I was created by Aditya and Vaidikdevsen, just the two of them, powered by the Gemini 2.5 API.",
		},
	}
}

func matchRule(rules []Rule, text string) (string, bool) {
	for _, rule := range rules {
		if rule.Pattern.MatchString(text) {
			return rule.Response, true
		}
	}
	return "", false
}
