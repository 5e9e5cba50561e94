package domain

// Customer lifecycle statuses.
const (
	StatusActive  = "active"
	StatusAtRisk  = "at_risk"
	StatusRenewed = "renewed"
	StatusChurned = "churned"
)

// Statuses lists every valid customer status.
var Statuses = []string{StatusActive, StatusAtRisk, StatusRenewed, StatusChurned}

// ValidStatus reports whether s is a known customer status.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Customer represents a customer account under renewal management.
type Customer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	HealthScore int     `json:"healthScore"`
	ARR         float64 `json:"arr"`
	Status      string  `json:"status"`
	OwnerID     string  `json:"ownerId,omitempty"`
	RenewalDate string  `json:"renewalDate,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	Archived    bool    `json:"archived"`
	ArchivedAt  string  `json:"archivedAt,omitempty"`
}

// CustomerInput holds the data needed to create a new customer.
type CustomerInput struct {
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	HealthScore int     `json:"healthScore"`
	ARR         float64 `json:"arr"`
	Status      string  `json:"status"`
	OwnerID     string  `json:"ownerId,omitempty"`
	RenewalDate string  `json:"renewalDate,omitempty"`
}

// CustomerPatch holds a partial update; nil fields are left unchanged.
type CustomerPatch struct {
	Name        *string  `json:"name,omitempty"`
	Industry    *string  `json:"industry,omitempty"`
	HealthScore *int     `json:"healthScore,omitempty"`
	ARR         *float64 `json:"arr,omitempty"`
	Status      *string  `json:"status,omitempty"`
	OwnerID     *string  `json:"ownerId,omitempty"`
	RenewalDate *string  `json:"renewalDate,omitempty"`
}

// ListOpts holds the parameters for listing customers.
type ListOpts struct {
	Limit    int
	After    string
	Archived bool
}

// CustomerPage is a cursor-paginated list of customers.
type CustomerPage struct {
	Results []*Customer
	After   string
	HasMore bool
}

// QueryResult is the response from a customer search.
type QueryResult struct {
	Total   int         `json:"total"`
	Results []*Customer `json:"results"`
}
