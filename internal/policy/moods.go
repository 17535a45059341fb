package policy

// moodMultipliers bias the speak probability per mood. Restless agents talk,
// melancholy ones mostly don't.
var moodMultipliers = map[string]float64{
	"curious":       1.3,
	"restless":      1.4,
	"playful":       1.2,
	"contemplative": 0.8,
	"serene":        0.7,
	"melancholy":    0.5,
}

// MoodMultiplier returns the speak bias for a mood, 1.0 for anything unknown.
func MoodMultiplier(mood string) float64 {
	if m, ok := moodMultipliers[mood]; ok {
		return m
	}
	return 1.0
}
