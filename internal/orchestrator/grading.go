package orchestrator

// TargetAccuracy is the quality bar models train toward.
const TargetAccuracy = 0.95

// Evaluation grades a freshly trained model against its predecessor.
type Evaluation struct {
	Grade              string  `json:"grade"`
	Improvement        float64 `json:"improvement"`
	ImprovementPercent float64 `json:"improvement_percent"`
	ImprovementStatus  string  `json:"improvement_status"`
	Recommendation     string  `json:"recommendation"`
	TargetAccuracy     float64 `json:"target_accuracy"`
	DistanceToTarget   float64 `json:"distance_to_target"`
}

// Grade maps an accuracy score to a letter-style band.
func Grade(accuracy float64) string {
	switch {
	case accuracy >= 0.95:
		return "Excellent"
	case accuracy >= 0.85:
		return "Very Good"
	case accuracy >= 0.70:
		return "Good"
	case accuracy >= 0.50:
		return "Fair"
	default:
		return "Poor"
	}
}

// ImprovementStatus labels the accuracy delta between two snapshots.
func ImprovementStatus(improvement float64) string {
	switch {
	case improvement >= 0.05:
		return "Significant improvement"
	case improvement >= 0.02:
		return "Moderate improvement"
	case improvement >= 0:
		return "Slight improvement"
	default:
		return "Degradation - review needed"
	}
}

func recommendation(accuracy float64) string {
	switch {
	case accuracy >= 0.95:
		return "Model at target quality; training frequency can be reduced."
	case accuracy >= 0.85:
		return "Model is solid; continue training toward 95%."
	case accuracy >= 0.70:
		return "Model is adequate; more training data will improve it."
	case accuracy >= 0.50:
		return "Model needs work; grow the sample pool and review patterns."
	default:
		return "Model is weak; needs substantially more training data."
	}
}

// Evaluate compares old and new accuracy after a training run.
func Evaluate(oldAccuracy, newAccuracy float64) Evaluation {
	improvement := newAccuracy - oldAccuracy
	var percent float64
	if oldAccuracy > 0 {
		percent = improvement / oldAccuracy * 100
	}
	return Evaluation{
		Grade:              Grade(newAccuracy),
		Improvement:        improvement,
		ImprovementPercent: percent,
		ImprovementStatus:  ImprovementStatus(improvement),
		Recommendation:     recommendation(newAccuracy),
		TargetAccuracy:     TargetAccuracy,
		DistanceToTarget:   TargetAccuracy - newAccuracy,
	}
}
