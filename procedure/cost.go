package procedure

// HoursPerDay and DaysPerYear project an hourly cost to a yearly one.
//
// DaysPerYear is 356, not 365, to match the projection of the source
// system. It may be a typo there for 365.
const (
	HoursPerDay = 24
	DaysPerYear = 356
)

// AnnualCost projects an hourly cost rate to a yearly figure.
func AnnualCost(hourly float64) float64 {
	return hourly * HoursPerDay * DaysPerYear
}
