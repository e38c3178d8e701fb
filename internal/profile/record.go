package profile

import (
	"time"

	"github.com/lib/pq"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// Column is one column assignment of an upsert.
type Column struct {
	Name  string
	Value any
}

// Record is a profile row ready to be written. AvatarSet is false when the
// submission neither uploaded nor removed an avatar, in which case the stored
// avatar_url must be left untouched.
type Record struct {
	models.Profile
	AvatarSet bool
}

// NewRecord builds the row for account from validated input.
func NewRecord(acct models.Account, in Input, now time.Time) Record {
	return Record{
		Profile: models.Profile{
			ID:                          acct.ID,
			Email:                       acct.Email,
			Username:                    in.Username,
			FullName:                    in.FullName,
			Location:                    in.Location,
			Bio:                         in.Bio,
			LinkedInURL:                 in.LinkedInURL,
			WebsiteURL:                  in.WebsiteURL,
			PrimaryRoleSeeking:          in.PrimaryRoleSeeking,
			YearsExperience:             in.YearsExperience,
			CoreSkills:                  array(in.CoreSkills),
			IndustryExperience:          array(in.IndustryExperience),
			HasIdea:                     in.HasIdea,
			IdeaDescription:             in.IdeaDescription,
			IdeaStage:                   in.IdeaStage,
			CofounderLookingForRoles:    array(in.CofounderLookingForRoles),
			CofounderLookingForSkills:   array(in.CofounderLookingForSkills),
			CofounderPersonalityTraits:  in.CofounderPersonalityTraits,
			CofounderIndustryBackground: in.CofounderIndustryBackground,
			CommitmentLevel:             in.CommitmentLevel,
			EquitySplitExpectation:      in.EquitySplitExpectation,
			WillingToRelocate:           in.WillingToRelocate,
			PreferredCofounderLocation:  in.PreferredCofounderLocation,
			Interests:                   array(in.Interests),
			UpdatedAt:                   now.UTC(),
		},
	}
}

// SetAvatarURL assigns the avatar column. A nil url clears it.
func (r *Record) SetAvatarURL(url *string) {
	r.AvatarURL = url
	r.AvatarSet = true
}

// Columns lists the columns written by an upsert, id first.
func (r Record) Columns() []Column {
	cols := []Column{
		{FieldID, r.ID},
		{FieldEmail, r.Email},
		{FieldUsername, r.Username},
		{FieldFullName, r.FullName},
		{FieldLocation, r.Location},
		{FieldBio, r.Bio},
		{FieldLinkedInURL, r.LinkedInURL},
		{FieldWebsiteURL, r.WebsiteURL},
		{FieldPrimaryRoleSeeking, r.PrimaryRoleSeeking},
		{FieldYearsExperience, r.YearsExperience},
		{FieldCoreSkills, r.CoreSkills},
		{FieldIndustryExperience, r.IndustryExperience},
		{FieldHasIdea, r.HasIdea},
		{FieldIdeaDescription, r.IdeaDescription},
		{FieldIdeaStage, r.IdeaStage},
		{FieldCofounderLookingForRoles, r.CofounderLookingForRoles},
		{FieldCofounderLookingForSkills, r.CofounderLookingForSkills},
		{FieldCofounderPersonalityTraits, r.CofounderPersonalityTraits},
		{FieldCofounderIndustryBackground, r.CofounderIndustryBackground},
		{FieldCommitmentLevel, r.CommitmentLevel},
		{FieldEquitySplitExpectation, r.EquitySplitExpectation},
		{FieldWillingToRelocate, r.WillingToRelocate},
		{FieldPreferredCofounderLocation, r.PreferredCofounderLocation},
		{FieldInterests, r.Interests},
	}
	if r.AvatarSet {
		cols = append(cols, Column{FieldAvatarURL, r.AvatarURL})
	}
	return append(cols, Column{FieldUpdatedAt, r.UpdatedAt})
}

// Values returns the columns as a JSON-friendly map.
func (r Record) Values() map[string]any {
	cols := r.Columns()
	values := make(map[string]any, len(cols))
	for _, c := range cols {
		values[c.Name] = c.Value
	}
	return values
}

// array keeps empty lists as empty arrays rather than NULL.
func array(items []string) pq.StringArray {
	if items == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(items)
}
