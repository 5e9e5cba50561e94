package domain

// Segment is a saved customer filter with a preferred ordering.
type Segment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filter      Filter `json:"filter"`
	Sort        Sort   `json:"sort"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Archived    bool   `json:"archived"`
}

// SegmentInput holds the data needed to create a segment.
type SegmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filter      Filter `json:"filter"`
	Sort        *Sort  `json:"sort,omitempty"`
}

// SegmentPatch holds a partial segment update; nil fields are left unchanged.
type SegmentPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Filter      *Filter `json:"filter,omitempty"`
	Sort        *Sort   `json:"sort,omitempty"`
}

// SegmentPage is a cursor-paginated list of segments.
type SegmentPage struct {
	Results []*Segment
	After   string
	HasMore bool
}
