package dto

import (
	"time"

	"safesight/domain/services"
)

// ExportRowResponse is one flat tabular row; the consumer turns these into
// CSV or a spreadsheet.
type ExportRowResponse struct {
	IdentityCode string    `json:"identityCode"`
	Name         string    `json:"name"`
	Department   string    `json:"department"`
	Day          string    `json:"day"`
	FirstSeen    time.Time `json:"firstSeen"`
	LastSeen     time.Time `json:"lastSeen"`
	Status       string    `json:"status"`
	Location     string    `json:"location"`
	Confidence   float64   `json:"confidence"`
}

func ExportRowsToResponse(rows []services.ExportRow) []ExportRowResponse {
	result := make([]ExportRowResponse, len(rows))
	for i, row := range rows {
		result[i] = ExportRowResponse{
			IdentityCode: row.IdentityCode,
			Name:         row.Name,
			Department:   row.Department,
			Day:          row.Day,
			FirstSeen:    row.FirstSeen,
			LastSeen:     row.LastSeen,
			Status:       row.Status,
			Location:     row.Location,
			Confidence:   row.Confidence,
		}
	}
	return result
}
