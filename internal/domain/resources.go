package domain

import "time"

type Event struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	Link           string    `gorm:"size:512;not null" json:"link"`
	Image          string    `gorm:"size:512" json:"image,omitempty"`
	Location       string    `gorm:"size:255" json:"location,omitempty"`
	EventType      string    `gorm:"size:64" json:"event_type,omitempty"`
	EventStatus    string    `gorm:"size:64" json:"event_status,omitempty"`
	AttendeesCount int       `json:"attendees_count"`
	StartsAt       time.Time `gorm:"index;not null" json:"starts_at"`
	EndsAt         time.Time `gorm:"not null" json:"ends_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Sponsor struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Logo             string    `gorm:"size:512" json:"logo,omitempty"`
	SubscriptionTier string    `gorm:"size:64" json:"subscription_tier,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	TeamRoleMember  = "member"
	TeamRoleCaptain = "captain"
)

type Team struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Icon       string       `gorm:"size:512" json:"icon,omitempty"`
	Categories string       `gorm:"size:512" json:"categories,omitempty"`
	Members    []TeamMember `gorm:"constraint:OnDelete:CASCADE" json:"members"`
	CreatedAt  time.Time    `json:"created_at"`
}

type TeamMember struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	TeamID   uint   `gorm:"uniqueIndex:idx_team_member;not null" json:"-"`
	Username string `gorm:"size:128;uniqueIndex:idx_team_member;not null" json:"username"`
	Role     string `gorm:"size:32;not null;default:member" json:"role"`
}

// Member returns the membership row for username, if any.
func (t *Team) Member(username string) (TeamMember, bool) {
	for _, m := range t.Members {
		if m.Username == username {
			return m, true
		}
	}
	return TeamMember{}, false
}

// Hacker is a hackathon applicant's profile. Username ties it to the
// principal that filed it.
type Hacker struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Username            string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	Email               string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName           string    `gorm:"size:128" json:"first_name,omitempty"`
	LastName            string    `gorm:"size:128" json:"last_name,omitempty"`
	PhoneNumber         string    `gorm:"size:32" json:"phone_number,omitempty"`
	Pronouns            string    `gorm:"size:64" json:"pronouns,omitempty"`
	Ethnicity           string    `gorm:"size:128" json:"ethnicity,omitempty"`
	SchoolName          string    `gorm:"size:255" json:"school_name,omitempty"`
	Major               string    `gorm:"size:255" json:"major,omitempty"`
	GradYear            string    `gorm:"size:16" json:"grad_year,omitempty"`
	GitHub              string    `gorm:"size:255" json:"github,omitempty"`
	LinkedIn            string    `gorm:"size:255" json:"linkedin,omitempty"`
	WhyAttend           string    `gorm:"size:200" json:"why_attend,omitempty"`
	DietaryRestrictions string    `gorm:"size:255" json:"dietary_restrictions,omitempty"`
	Beginner            bool      `json:"beginner"`
	InPerson            bool      `json:"in_person"`
	CanShareInfo        bool      `json:"can_share_info"`
	RSVPStatus          bool      `json:"rsvp_status"`
	IsAccepted          bool      `gorm:"not null;default:false" json:"is_accepted"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
