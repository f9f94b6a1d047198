// Package classify assigns a coarse topic category to thread summaries using
// keyword scoring over a fixed label set.
package classify

import "strings"

// Fallback is the lowest-commitment category; it wins whenever no other
// category scores strictly higher than zero.
const Fallback = "General"

// Categories is the fixed, ordered label set. Iteration order matters: the
// first category to reach the highest score wins ties.
var Categories = []string{
	"HR",
	"IT Support",
	"Engineering",
	"DevOps/Release",
	"Bug",
	"Feature Request",
	"Product/Design",
	"Sales/Marketing",
	"Operations/Admin",
	Fallback,
}

// keywords maps each category to its vocabulary. Matching is case-insensitive
// substring matching, not word-boundary matching; each keyword counts at most
// once per text. The table is read-only after init.
var keywords = map[string][]string{
	"HR": {
		"vacation", "pto", "sick leave", "hiring", "recruit", "onboarding",
		"payroll", "salary", "benefits", "performance review", "resignation",
	},
	"IT Support": {
		"outage", "login", "password", "vpn", "printer", "mailbox",
		"permission", "account locked", "laptop", "wifi", "helpdesk",
	},
	"Engineering": {
		"refactor", "code review", "unit test", "typescript", "golang",
		"api", "dependency", "performance", "optimization", "algorithm",
	},
	"DevOps/Release": {
		"deploy", "release", "kubernetes", "helm", "docker", "ci", "cd",
		"pipeline", "rollback", "monitoring", "alert",
	},
	"Bug": {
		"bug", "error", "exception", "stack trace", "hotfix", "crash",
		"regression", "fail", "broken", "defect",
	},
	"Feature Request": {
		"feature", "request", "proposal", "improvement", "enhancement",
		"requirement", "roadmap", "use case",
	},
	"Product/Design": {
		"product", "design", "ux", "ui", "prototype", "usability",
		"wireframe", "user research", "mockup", "figma",
	},
	"Sales/Marketing": {
		"sales", "marketing", "campaign", "advertising", "lead", "crm",
		"conversion", "branding", "customer", "pricing",
	},
	"Operations/Admin": {
		"operations", "policy", "process", "procurement", "invoice",
		"expense", "budget", "vendor", "security", "compliance",
	},
	Fallback: {
		"announcement", "notice", "question", "meeting", "schedule",
		"reminder", "fyi", "share",
	},
}

// Classify maps free text to one category. It is a pure function: the text is
// lowercased, each category's keywords are counted as substring hits (once per
// keyword), and the strictly highest count wins. All-zero scores resolve to
// the fallback category.
func Classify(text string) string {
	normalized := strings.ToLower(text)

	best := Fallback
	bestScore := 0

	for _, category := range Categories {
		score := 0
		for _, kw := range keywords[category] {
			if strings.Contains(normalized, kw) {
				score++
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	return best
}

// Keywords returns the keyword list for a category. Used by tests; callers
// must not mutate the returned slice.
func Keywords(category string) []string {
	return keywords[category]
}
