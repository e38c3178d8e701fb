package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Upload is an avatar image chosen by the user. Data is never serialized;
// callers persist the bytes separately from the metadata.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// List is a list-valued field. It accepts either a JSON array or the
// comma-separated text a user types into a single input.
type List []string

func (l *List) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*l = SplitList(text)
		return nil
	}

	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("expected a list or comma-separated text: %w", err)
	}
	*l = SplitList(strings.Join(items, ","))
	return nil
}

// NumericText holds a number exactly as typed. It is only converted to an
// integer during validation, so bad input surfaces as a field error.
type NumericText string

func (n *NumericText) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*n = NumericText(text)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a number: %w", err)
	}
	*n = NumericText(num.String())
	return nil
}

// Draft is the in-progress profile in its rich form.
type Draft struct {
	Username                    string      `json:"username"`
	FullName                    string      `json:"full_name"`
	Location                    string      `json:"location"`
	Bio                         string      `json:"bio"`
	LinkedInURL                 string      `json:"linkedin_url"`
	WebsiteURL                  string      `json:"website_url"`
	PrimaryRoleSeeking          string      `json:"primary_role_seeking"`
	YearsExperience             NumericText `json:"years_experience"`
	CoreSkills                  List        `json:"core_skills"`
	IndustryExperience          List        `json:"industry_experience"`
	HasIdea                     bool        `json:"has_idea"`
	IdeaDescription             string      `json:"idea_description"`
	IdeaStage                   string      `json:"idea_stage"`
	CofounderLookingForRoles    List        `json:"cofounder_looking_for_roles"`
	CofounderLookingForSkills   List        `json:"cofounder_looking_for_skills"`
	CofounderPersonalityTraits  string      `json:"cofounder_personality_traits"`
	CofounderIndustryBackground string      `json:"cofounder_industry_background"`
	CommitmentLevel             string      `json:"commitment_level"`
	EquitySplitExpectation      string      `json:"equity_split_expectation"`
	WillingToRelocate           bool        `json:"willing_to_relocate"`
	PreferredCofounderLocation  string      `json:"preferred_cofounder_location"`
	Interests                   List        `json:"interests"`

	Avatar        *Upload `json:"avatar,omitempty"`
	AvatarRemoved bool    `json:"avatar_removed"`
}

// Patch merges a partial JSON object onto the draft. Keys that are absent
// keep their current values. The avatar can only change through SetAvatar
// and RemoveAvatar.
func (d *Draft) Patch(body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	delete(raw, FieldAvatar)
	delete(raw, FieldAvatarRemoved)

	filtered, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	if err := json.Unmarshal(filtered, d); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	return nil
}

func (d *Draft) SetAvatar(u *Upload) {
	d.Avatar = u
	d.AvatarRemoved = false
}

func (d *Draft) RemoveAvatar() {
	d.Avatar = nil
	d.AvatarRemoved = true
}
