package llm

// Profile is a named sampling preset. Capabilities pick their profile; clients never do.
type Profile struct {
	Name        string
	Temperature float64
	TopP        float64
}

var (
	ProfileChat     = Profile{Name: "chat", Temperature: 0.8, TopP: 0.95}
	ProfileGrade    = Profile{Name: "grade", Temperature: 0.5, TopP: 0.85}
	ProfileQuestion = Profile{Name: "question", Temperature: 0.7, TopP: 0.9}
	ProfileDefault  = Profile{Name: "default", Temperature: 0.7, TopP: 0.9}
)
