package profile

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
)

// Field names shared by the draft, the transport payload and the row.
const (
	FieldAvatar                      = "avatar"
	FieldAvatarRemoved               = "avatar_removed"
	FieldUsername                    = "username"
	FieldFullName                    = "full_name"
	FieldLocation                    = "location"
	FieldBio                         = "bio"
	FieldLinkedInURL                 = "linkedin_url"
	FieldWebsiteURL                  = "website_url"
	FieldPrimaryRoleSeeking          = "primary_role_seeking"
	FieldYearsExperience             = "years_experience"
	FieldCoreSkills                  = "core_skills"
	FieldIndustryExperience          = "industry_experience"
	FieldHasIdea                     = "has_idea"
	FieldIdeaDescription             = "idea_description"
	FieldIdeaStage                   = "idea_stage"
	FieldCofounderLookingForRoles    = "cofounder_looking_for_roles"
	FieldCofounderLookingForSkills   = "cofounder_looking_for_skills"
	FieldCofounderPersonalityTraits  = "cofounder_personality_traits"
	FieldCofounderIndustryBackground = "cofounder_industry_background"
	FieldCommitmentLevel             = "commitment_level"
	FieldEquitySplitExpectation      = "equity_split_expectation"
	FieldWillingToRelocate           = "willing_to_relocate"
	FieldPreferredCofounderLocation  = "preferred_cofounder_location"
	FieldInterests                   = "interests"

	FieldID        = "id"
	FieldEmail     = "email"
	FieldAvatarURL = "avatar_url"
	FieldUpdatedAt = "updated_at"
)

// DraftFields are the user-editable fields, in form order.
var DraftFields = []string{
	FieldAvatar, FieldUsername, FieldFullName, FieldLocation, FieldBio,
	FieldLinkedInURL, FieldWebsiteURL, FieldPrimaryRoleSeeking, FieldYearsExperience,
	FieldCoreSkills, FieldIndustryExperience, FieldHasIdea, FieldIdeaDescription,
	FieldIdeaStage, FieldCofounderLookingForRoles, FieldCofounderLookingForSkills,
	FieldCofounderPersonalityTraits, FieldCofounderIndustryBackground,
	FieldCommitmentLevel, FieldEquitySplitExpectation, FieldWillingToRelocate,
	FieldPreferredCofounderLocation, FieldInterests,
}

const listSeparator = ","

// Payload is the flat transport form of a submission: text values keyed by
// field name plus an optional avatar file.
type Payload struct {
	Values map[string]string
	Avatar *Upload
}

// Input is a decoded payload in its canonical, typed form.
type Input struct {
	Username                    string
	FullName                    string
	Location                    string
	Bio                         string
	LinkedInURL                 string
	WebsiteURL                  string
	PrimaryRoleSeeking          string
	YearsExperience             *int
	CoreSkills                  []string
	IndustryExperience          []string
	HasIdea                     bool
	IdeaDescription             string
	IdeaStage                   string
	CofounderLookingForRoles    []string
	CofounderLookingForSkills   []string
	CofounderPersonalityTraits  string
	CofounderIndustryBackground string
	CommitmentLevel             string
	EquitySplitExpectation      string
	WillingToRelocate           bool
	PreferredCofounderLocation  string
	Interests                   []string
	Avatar                      *Upload
	AvatarRemoved               bool
}

// SplitList splits comma-separated text, trimming items and dropping empties.
func SplitList(text string) []string {
	var items []string
	for _, item := range strings.Split(text, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// JoinList is the inverse of SplitList for already-normalized items.
func JoinList(items []string) string {
	return strings.Join(items, listSeparator)
}

// Encode flattens a draft into a transport payload.
func Encode(d Draft) Payload {
	values := map[string]string{
		FieldUsername:                    d.Username,
		FieldFullName:                    d.FullName,
		FieldLocation:                    d.Location,
		FieldBio:                         d.Bio,
		FieldLinkedInURL:                 d.LinkedInURL,
		FieldWebsiteURL:                  d.WebsiteURL,
		FieldPrimaryRoleSeeking:          d.PrimaryRoleSeeking,
		FieldYearsExperience:             string(d.YearsExperience),
		FieldCoreSkills:                  JoinList(d.CoreSkills),
		FieldIndustryExperience:          JoinList(d.IndustryExperience),
		FieldHasIdea:                     strconv.FormatBool(d.HasIdea),
		FieldIdeaDescription:             d.IdeaDescription,
		FieldIdeaStage:                   d.IdeaStage,
		FieldCofounderLookingForRoles:    JoinList(d.CofounderLookingForRoles),
		FieldCofounderLookingForSkills:   JoinList(d.CofounderLookingForSkills),
		FieldCofounderPersonalityTraits:  d.CofounderPersonalityTraits,
		FieldCofounderIndustryBackground: d.CofounderIndustryBackground,
		FieldCommitmentLevel:             d.CommitmentLevel,
		FieldEquitySplitExpectation:      d.EquitySplitExpectation,
		FieldWillingToRelocate:           strconv.FormatBool(d.WillingToRelocate),
		FieldPreferredCofounderLocation:  d.PreferredCofounderLocation,
		FieldInterests:                   JoinList(d.Interests),
	}

	p := Payload{Values: values}
	switch {
	case d.Avatar != nil:
		p.Avatar = d.Avatar
	case d.AvatarRemoved:
		values[FieldAvatarRemoved] = "true"
	}
	return p
}

// Decode parses a transport payload. Values that cannot be converted are
// reported as field errors instead of being coerced to zero values.
func Decode(p Payload) (Input, FieldErrors) {
	errs := FieldErrors{}
	text := func(field string) string {
		return strings.TrimSpace(p.Values[field])
	}
	flag := func(field string) bool {
		raw := text(field)
		if raw == "" {
			return false
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs.Add(field, "Expected true or false")
		}
		return b
	}

	in := Input{
		Username:                    text(FieldUsername),
		FullName:                    text(FieldFullName),
		Location:                    text(FieldLocation),
		Bio:                         text(FieldBio),
		LinkedInURL:                 text(FieldLinkedInURL),
		WebsiteURL:                  text(FieldWebsiteURL),
		PrimaryRoleSeeking:          text(FieldPrimaryRoleSeeking),
		CoreSkills:                  SplitList(p.Values[FieldCoreSkills]),
		IndustryExperience:          SplitList(p.Values[FieldIndustryExperience]),
		HasIdea:                     flag(FieldHasIdea),
		IdeaDescription:             text(FieldIdeaDescription),
		IdeaStage:                   text(FieldIdeaStage),
		CofounderLookingForRoles:    SplitList(p.Values[FieldCofounderLookingForRoles]),
		CofounderLookingForSkills:   SplitList(p.Values[FieldCofounderLookingForSkills]),
		CofounderPersonalityTraits:  text(FieldCofounderPersonalityTraits),
		CofounderIndustryBackground: text(FieldCofounderIndustryBackground),
		CommitmentLevel:             text(FieldCommitmentLevel),
		EquitySplitExpectation:      text(FieldEquitySplitExpectation),
		WillingToRelocate:           flag(FieldWillingToRelocate),
		PreferredCofounderLocation:  text(FieldPreferredCofounderLocation),
		Interests:                   SplitList(p.Values[FieldInterests]),
		AvatarRemoved:               flag(FieldAvatarRemoved),
	}

	if raw := text(FieldYearsExperience); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add(FieldYearsExperience, "Years of experience must be a whole number")
		} else {
			in.YearsExperience = &n
		}
	}

	if p.Avatar != nil && p.Avatar.Size > 0 {
		in.Avatar = p.Avatar
	}
	return in, errs
}

// ParseMultipart reads a multipart submission. An empty avatar part counts
// as no file.
func ParseMultipart(form *multipart.Form) (Payload, error) {
	p := Payload{Values: make(map[string]string, len(form.Value))}
	for key, values := range form.Value {
		if len(values) > 0 {
			p.Values[key] = values[0]
		}
	}

	if files := form.File[FieldAvatar]; len(files) > 0 && files[0].Size > 0 {
		upload, err := ReadUpload(files[0])
		if err != nil {
			return Payload{}, err
		}
		p.Avatar = upload
	}
	return p, nil
}

// ReadUpload loads a multipart file into memory.
func ReadUpload(fh *multipart.FileHeader) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open avatar: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}

	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
