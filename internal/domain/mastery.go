package domain

type MasteryLevel string

const (
	LevelMastered   MasteryLevel = "mastered"
	LevelProficient MasteryLevel = "proficient"
	LevelDeveloping MasteryLevel = "developing"
	LevelNovice     MasteryLevel = "novice"
)

// ComputeLevel buckets a mastery percentage (0-100).
func ComputeLevel(percentage float64) MasteryLevel {
	switch {
	case percentage > 85:
		return LevelMastered
	case percentage > 70:
		return LevelProficient
	case percentage > 40:
		return LevelDeveloping
	default:
		return LevelNovice
	}
}

type LevelGuidance struct {
	Level             MasteryLevel
	Review            bool
	SuggestedExercise int
}

var LevelGuidances = map[MasteryLevel]LevelGuidance{
	LevelMastered: {
		Level:             LevelMastered,
		Review:            false,
		SuggestedExercise: 0,
	},
	LevelProficient: {
		Level:             LevelProficient,
		Review:            false,
		SuggestedExercise: 1,
	},
	LevelDeveloping: {
		Level:             LevelDeveloping,
		Review:            true,
		SuggestedExercise: 2,
	},
	LevelNovice: {
		Level:             LevelNovice,
		Review:            true,
		SuggestedExercise: 3,
	},
}

func GetLevelGuidance(level MasteryLevel) LevelGuidance {
	if g, ok := LevelGuidances[level]; ok {
		return g
	}
	return LevelGuidances[LevelNovice]
}

func LevelReason(percentage float64) string {
	switch ComputeLevel(percentage) {
	case LevelMastered:
		return "mastery > 85%"
	case LevelProficient:
		return "70% < mastery <= 85%"
	case LevelDeveloping:
		return "40% < mastery <= 70%"
	default:
		return "mastery <= 40%"
	}
}

func AllLevels() []MasteryLevel {
	return []MasteryLevel{LevelMastered, LevelProficient, LevelDeveloping, LevelNovice}
}

func ValidLevel(l string) bool {
	switch MasteryLevel(l) {
	case LevelMastered, LevelProficient, LevelDeveloping, LevelNovice:
		return true
	}
	return false
}
