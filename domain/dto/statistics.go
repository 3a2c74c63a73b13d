package dto

import (
	"time"

	"safesight/domain/services"
)

type DepartmentStatisticsResponse struct {
	Registered   int     `json:"registered"`
	Present      int     `json:"present"`
	PresenceRate float64 `json:"presenceRate"`
}

type DailyStatisticsResponse struct {
	Day             string                                  `json:"day"`
	TotalRegistered int                                     `json:"totalRegistered"`
	PresentCount    int                                     `json:"presentCount"`
	AbsentCount     int                                     `json:"absentCount"`
	PresenceRate    float64                                 `json:"presenceRate"`
	ByDepartment    map[string]DepartmentStatisticsResponse `json:"byDepartment"`
}

func DailyStatisticsToResponse(stats *services.DailyStatistics) *DailyStatisticsResponse {
	resp := &DailyStatisticsResponse{
		Day:             stats.Day,
		TotalRegistered: stats.TotalRegistered,
		PresentCount:    stats.PresentCount,
		AbsentCount:     stats.AbsentCount,
		PresenceRate:    stats.PresenceRate,
		ByDepartment:    make(map[string]DepartmentStatisticsResponse, len(stats.ByDepartment)),
	}
	for dept, deptStats := range stats.ByDepartment {
		resp.ByDepartment[dept] = DepartmentStatisticsResponse{
			Registered:   deptStats.Registered,
			Present:      deptStats.Present,
			PresenceRate: deptStats.PresenceRate,
		}
	}
	return resp
}

type DayPresenceResponse struct {
	Day     string `json:"day"`
	Present bool   `json:"present"`
}

type IdentityStatisticsResponse struct {
	IdentityCode   string                `json:"identityCode"`
	Name           string                `json:"name"`
	Department     string                `json:"department"`
	WindowDays     int                   `json:"windowDays"`
	PresentDays    int                   `json:"presentDays"`
	PresenceRate   float64               `json:"presenceRate"`
	LastSeen       *time.Time            `json:"lastSeen,omitempty"`
	DetectionCount int64                 `json:"detectionCount"`
	Trend          []DayPresenceResponse `json:"trend"`
}

func IdentityStatisticsToResponse(stats *services.IdentityStatistics) *IdentityStatisticsResponse {
	trend := make([]DayPresenceResponse, len(stats.Trend))
	for i, day := range stats.Trend {
		trend[i] = DayPresenceResponse{Day: day.Day, Present: day.Present}
	}
	return &IdentityStatisticsResponse{
		IdentityCode:   stats.IdentityCode,
		Name:           stats.Name,
		Department:     stats.Department,
		WindowDays:     stats.WindowDays,
		PresentDays:    stats.PresentDays,
		PresenceRate:   stats.PresenceRate,
		LastSeen:       stats.LastSeen,
		DetectionCount: stats.DetectionCount,
		Trend:          trend,
	}
}
