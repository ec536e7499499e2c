// Package report — predict.go грубо экстраполирует активность участника
// на следующий период. Никакой магии: линейная экстраполяция частоты
// активных дней на 30 дней вперёд.
package report

import "math"

// Prediction — прогноз активности участника на 30 дней.
type Prediction struct {
	PredictedMatsuni float64 `json:"predicted_matsuni"` // 1 знак
	PredictedDays    float64 `json:"predicted_days"`    // 1 знак
	Confidence       float64 `json:"confidence"`        // [0,1], 2 знака
}

// PredictNextPeriod экстраполирует итог участника на следующие 30 дней.
// observedDays — длина периода наблюдения; при нуле прогноз нулевой.
// Уверенность растёт с числом активных дней и насыщается после 10.
func PredictNextPeriod(m MemberTotal, observedDays int) Prediction {
	if observedDays <= 0 {
		return Prediction{}
	}

	activityRate := float64(m.DaysActive) / float64(observedDays)
	predictedDays := activityRate * 30
	predictedMatsuni := m.AvgMatsuni * predictedDays

	confidence := float64(m.DaysActive) / 10
	if confidence > 1 {
		confidence = 1
	}

	return Prediction{
		PredictedMatsuni: math.Round(predictedMatsuni*10) / 10,
		PredictedDays:    math.Round(predictedDays*10) / 10,
		Confidence:       math.Round(confidence*100) / 100,
	}
}
