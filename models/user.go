package models

type Role string

const (
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// Profile holds the editable part of an actor.
type Profile struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	DarkMode     bool   `json:"dark_mode"`
}

// Actor is an authenticated user. Role is assigned at signup and never
// changes afterwards.
type Actor struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	DarkMode     bool   `json:"dark_mode"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Profile() Profile {
	return Profile{Name: a.Name, Organization: a.Organization, DarkMode: a.DarkMode}
}

// CanSee reports whether the ticket belongs to the actor's visible set:
// admins see every ticket, companies only their own.
func (a Actor) CanSee(t Ticket) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleCompany && t.CompanyID == a.ID
}

// IsParticipant reports whether the actor may post in the ticket's chat.
func (a Actor) IsParticipant(t Ticket) bool {
	return a.CanSee(t)
}
