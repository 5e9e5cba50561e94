package domain

// Dashboard aggregates portfolio-level customer metrics.
type Dashboard struct {
	TotalCustomers int          `json:"totalCustomers"`
	TotalARR       float64      `json:"totalArr"`
	AverageHealth  float64      `json:"averageHealth"`
	AtRiskCount    int          `json:"atRiskCount"`
	RenewalsDue    int          `json:"renewalsDue"`
	StatusCounts   []CountEntry `json:"statusCounts"`
	IndustryCounts []CountEntry `json:"industryCounts"`
}

// CountEntry is one bucket of a grouped count.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
