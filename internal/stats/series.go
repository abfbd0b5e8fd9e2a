package stats

import (
	"fittrack/backend/internal/domain"
)

// Series is a year-keyed indicator series for one country.
type Series map[int]float64

// Indicator codes understood by the two providers.
const (
	IndicatorObesity        = "NCD_BMI_30A"
	IndicatorLifeExpectancy = "WHOSIS_000001"
	IndicatorActivity       = "NCD_PAC"
	IndicatorNutrition      = "NUT_CAL_SUPPLY"

	IndicatorGDP          = "NY.GDP.PCAP.CD"
	IndicatorUnemployment = "SL.UEM.TOTL.ZS"
	IndicatorIncome       = "NY.ADJ.NNTY.PC.CD"
)

// IndicatorsFor maps an analysis kind to the health and economic indicator
// codes its series are fetched under.
func IndicatorsFor(kind domain.AnalysisKind) (health, economic string, ok bool) {
	switch kind {
	case domain.AnalysisObesityGDP:
		return IndicatorObesity, IndicatorGDP, true
	case domain.AnalysisLifeExpectancyGDP:
		return IndicatorLifeExpectancy, IndicatorGDP, true
	case domain.AnalysisActivityUnemployment:
		return IndicatorActivity, IndicatorUnemployment, true
	case domain.AnalysisNutritionIncome:
		return IndicatorNutrition, IndicatorIncome, true
	}
	return "", "", false
}
