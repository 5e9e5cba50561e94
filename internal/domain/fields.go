package domain

import (
	"fmt"
	"strconv"
)

// ExportFields lists the customer fields available to exports, in their
// default column order.
var ExportFields = []string{"id", "name", "industry", "healthScore", "arr", "status", "ownerId", "renewalDate"}

// ValidExportField reports whether field names an exportable customer field.
func ValidExportField(field string) bool {
	for _, known := range ExportFields {
		if field == known {
			return true
		}
	}
	return false
}

// FieldValue renders one customer field as a string for export. It returns
// an error for unknown fields so callers can reject bad column lists.
func FieldValue(c Customer, field string) (string, error) {
	switch field {
	case "id":
		return c.ID, nil
	case "name":
		return c.Name, nil
	case "industry":
		return c.Industry, nil
	case "healthScore":
		return strconv.Itoa(c.HealthScore), nil
	case "arr":
		return strconv.FormatFloat(c.ARR, 'f', 2, 64), nil
	case "status":
		return c.Status, nil
	case "ownerId":
		return c.OwnerID, nil
	case "renewalDate":
		return c.RenewalDate, nil
	default:
		return "", fmt.Errorf("unknown export field %q", field)
	}
}
