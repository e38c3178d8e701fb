package models

import (
	"time"

	"github.com/lib/pq"
)

// Enumerated profile values, as offered by the wizard's select inputs.
var (
	IdeaStages       = []string{"Idea", "MVP/Prototype", "Early Traction", "Growth"}
	CommitmentLevels = []string{"Full-time", "Part-time", "Flexible"}
	EquitySplits     = []string{"Negotiable", "Equal Split"}
)

// Profile is one waitlist_profiles row. ID matches auth.users.id.
type Profile struct {
	ID                          string         `json:"id" db:"id"`
	Email                       string         `json:"email" db:"email"`
	Username                    string         `json:"username" db:"username"`
	FullName                    string         `json:"full_name" db:"full_name"`
	Location                    string         `json:"location" db:"location"`
	Bio                         string         `json:"bio" db:"bio"`
	LinkedInURL                 string         `json:"linkedin_url" db:"linkedin_url"`
	WebsiteURL                  string         `json:"website_url" db:"website_url"`
	PrimaryRoleSeeking          string         `json:"primary_role_seeking" db:"primary_role_seeking"`
	YearsExperience             *int           `json:"years_experience" db:"years_experience"`
	CoreSkills                  pq.StringArray `json:"core_skills" db:"core_skills"`
	IndustryExperience          pq.StringArray `json:"industry_experience" db:"industry_experience"`
	HasIdea                     bool           `json:"has_idea" db:"has_idea"`
	IdeaDescription             string         `json:"idea_description" db:"idea_description"`
	IdeaStage                   string         `json:"idea_stage" db:"idea_stage"`
	CofounderLookingForRoles    pq.StringArray `json:"cofounder_looking_for_roles" db:"cofounder_looking_for_roles"`
	CofounderLookingForSkills   pq.StringArray `json:"cofounder_looking_for_skills" db:"cofounder_looking_for_skills"`
	CofounderPersonalityTraits  string         `json:"cofounder_personality_traits" db:"cofounder_personality_traits"`
	CofounderIndustryBackground string         `json:"cofounder_industry_background" db:"cofounder_industry_background"`
	CommitmentLevel             string         `json:"commitment_level" db:"commitment_level"`
	EquitySplitExpectation      string         `json:"equity_split_expectation" db:"equity_split_expectation"`
	WillingToRelocate           bool           `json:"willing_to_relocate" db:"willing_to_relocate"`
	PreferredCofounderLocation  string         `json:"preferred_cofounder_location" db:"preferred_cofounder_location"`
	Interests                   pq.StringArray `json:"interests" db:"interests"`
	AvatarURL                   *string        `json:"avatar_url" db:"avatar_url"`
	UpdatedAt                   time.Time      `json:"updated_at" db:"updated_at"`
}

// ProfileStatusResponse answers whether the caller already completed a profile.
type ProfileStatusResponse struct {
	HasProfile bool `json:"has_profile"`
}

// SubmitProfileResponse is returned when a submission is persisted.
type SubmitProfileResponse struct {
	Success bool    `json:"success"`
	Profile Profile `json:"profile"`
	Message string  `json:"message"`
}
