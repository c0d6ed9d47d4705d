package validate

// GoldenQuery is one fixture in the retrieval quality suite: a real question
// with the source URLs that should surface and the minimum acceptable score.
type GoldenQuery struct {
	Text        string
	URLPatterns []string
	MinScore    float64
}

// Minimum scores are calibrated for a small corpus; raise them toward 0.5-0.6
// as more content is ingested.
var goldenSet = []GoldenQuery{
	{
		Text:        "What is inverse kinematics?",
		URLPatterns: []string{"/docs/module1-ros2-fundamentals", "/docs/module3-advanced-robotics"},
		MinScore:    0.25,
	},
	{
		Text:        "How does robot arm control work?",
		URLPatterns: []string{"/docs/module1-ros2-fundamentals/chapter3", "/docs/module3-advanced-robotics/chapter8"},
		MinScore:    0.4,
	},
	{
		Text:        "Explain sensor fusion techniques",
		URLPatterns: []string{"/docs/module4-vla-systems", "/docs/module1-ros2-fundamentals", "/docs/module2-simulation"},
		MinScore:    0.25,
	},
	{
		Text:        "What is motion planning for robots?",
		URLPatterns: []string{"/docs/module1-ros2-fundamentals", "/docs/module2-simulation", "/docs/module3-advanced-robotics"},
		MinScore:    0.4,
	},
	{
		Text:        "How do coordinate transforms work?",
		URLPatterns: []string{"/docs/module1-ros2-fundamentals", "/docs/introduction", "/docs/module3-advanced-robotics"},
		MinScore:    0.2,
	},
}

// negativeQuery is out-of-domain; it must return nothing, or nothing scoring
// at or above MinScore.
var negativeQuery = GoldenQuery{
	Text:     "What is the best pizza recipe?",
	MinScore: 0.3,
}

// minGoldenPasses is how many golden queries must pass for the suite to pass.
const minGoldenPasses = 4

// GoldenSet returns a copy of the golden query fixtures. The copy is deep:
// mutating a returned fixture's URL patterns must not touch the process-wide set.
func GoldenSet() []GoldenQuery {
	out := make([]GoldenQuery, len(goldenSet))
	for i, g := range goldenSet {
		out[i] = g
		out[i].URLPatterns = append([]string(nil), g.URLPatterns...)
	}
	return out
}

// NegativeQuery returns the out-of-domain fixture.
func NegativeQuery() GoldenQuery { return negativeQuery }
