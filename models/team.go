package models

import (
	"time"
)

type Team struct {
	ID          string       `json:"id"`
	TeamName    string       `json:"team_name"`
	LeaderID    string       `json:"leader_id"`
	Members     []TeamMember `json:"members"`
	TotalAmount int          `json:"total_amount"`
	Status      string       `json:"status"`
}

type TeamMember struct {
	MemberID    string     `json:"member_id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	CheckedIn   bool       `json:"checked_in"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	CheckedInBy string     `json:"checked_in_by,omitempty"`
}

// FindMember returns the index of a member in the roster, or -1.
func (t *Team) FindMember(memberID string) int {
	for i := range t.Members {
		if t.Members[i].MemberID == memberID {
			return i
		}
	}
	return -1
}
