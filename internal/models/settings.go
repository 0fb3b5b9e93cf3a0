package models

// MiningSettings is the global program singleton. It is seeded from config at
// startup when absent and is read-only to the request path; only the accrual
// job moves SupplyDistributed.
type MiningSettings struct {
	TotalSupply       float64 `json:"total_supply" redis:"total_supply"`
	SupplyDistributed float64 `json:"supply_distributed" redis:"supply_distributed"`
	EndAt             int64   `json:"end_at" redis:"end_at"`
	MinRatePerUser    float64 `json:"min_rate_per_user" redis:"min_rate_per_user"`
}

// RemainingSupply is the undistributed portion of the program allocation,
// clamped at zero.
func (s *MiningSettings) RemainingSupply() float64 {
	r := s.TotalSupply - s.SupplyDistributed
	if r < 0 {
		return 0
	}
	return r
}
