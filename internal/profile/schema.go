package profile

import (
	"fmt"
	"net/url"
	"slices"
	"unicode/utf8"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// DefaultMaxAvatarSize is the largest avatar accepted, in bytes.
const DefaultMaxAvatarSize int64 = 3 * 1024 * 1024

// AvatarTypes lists the accepted avatar content types.
var AvatarTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}

type Check int

const (
	CheckRequired Check = iota
	CheckMinLen
	CheckMaxLen
	CheckURL
	CheckMin
	CheckOneOf
	CheckMaxBytes
	CheckImageType
)

// Rule is a single declarative constraint on a field. When names a boolean
// field that must be true for the rule to apply; empty means always.
type Rule struct {
	Check   Check
	Limit   int64
	Options []string
	When    string
	Message string
}

type fieldRule struct {
	field string
	rule  Rule
}

// Schema is an ordered set of field rules.
type Schema struct {
	rules []fieldRule
}

func NewSchema() *Schema {
	return &Schema{}
}

// Field appends rules for field and returns the schema for chaining.
func (s *Schema) Field(field string, rules ...Rule) *Schema {
	for _, r := range rules {
		s.rules = append(s.rules, fieldRule{field: field, rule: r})
	}
	return s
}

// ProfileSchema is the canonical schema shared by the wizard steps and the
// submission service.
func ProfileSchema(maxAvatar int64) *Schema {
	if maxAvatar <= 0 {
		maxAvatar = DefaultMaxAvatarSize
	}
	mb := maxAvatar / (1024 * 1024)

	return NewSchema().
		Field(FieldAvatar,
			Rule{Check: CheckMaxBytes, Limit: maxAvatar, Message: fmt.Sprintf("Max image size is %dMB.", mb)},
			Rule{Check: CheckImageType, Options: AvatarTypes, Message: "Only .jpg, .jpeg, .png and .gif formats are supported."},
		).
		Field(FieldUsername,
			Rule{Check: CheckMinLen, Limit: 3, Message: "Username must be at least 3 characters"},
			Rule{Check: CheckMaxLen, Limit: 50, Message: "Username cannot exceed 50 characters"},
		).
		Field(FieldFullName,
			Rule{Check: CheckMinLen, Limit: 2, Message: "Full name is required"},
			Rule{Check: CheckMaxLen, Limit: 100, Message: "Full name cannot exceed 100 characters"},
		).
		Field(FieldBio, Rule{Check: CheckMaxLen, Limit: 500, Message: "Bio cannot exceed 500 characters"}).
		Field(FieldLinkedInURL, Rule{Check: CheckURL, Message: "Please enter a valid URL"}).
		Field(FieldWebsiteURL, Rule{Check: CheckURL, Message: "Please enter a valid URL"}).
		Field(FieldYearsExperience, Rule{Check: CheckMin, Limit: 0, Message: "Years of experience cannot be negative"}).
		Field(FieldIdeaDescription,
			Rule{Check: CheckRequired, When: FieldHasIdea, Message: "Tell us about your idea"},
			Rule{Check: CheckMaxLen, Limit: 1000, Message: "Idea description cannot exceed 1000 characters"},
		).
		Field(FieldIdeaStage,
			Rule{Check: CheckRequired, When: FieldHasIdea, Message: "Select the stage of your idea"},
			Rule{Check: CheckOneOf, Options: models.IdeaStages, Message: "Select a valid idea stage"},
		).
		Field(FieldCommitmentLevel, Rule{Check: CheckOneOf, Options: models.CommitmentLevels, Message: "Select a valid commitment level"}).
		Field(FieldEquitySplitExpectation, Rule{Check: CheckOneOf, Options: models.EquitySplits, Message: "Select a valid equity split"})
}

// Validate applies the rules for fields, or every rule when fields is empty.
func (s *Schema) Validate(in Input, fields ...string) FieldErrors {
	errs := FieldErrors{}
	for _, fr := range s.rules {
		if len(fields) > 0 && !slices.Contains(fields, fr.field) {
			continue
		}
		if fr.rule.When != "" && !in.Flag(fr.rule.When) {
			continue
		}
		if !fr.rule.passes(in, fr.field) {
			errs.Add(fr.field, fr.rule.Message)
		}
	}
	return errs
}

// Check decodes and validates a payload. Decode errors are reported the same
// way as rule failures. The returned errors are nil when the payload passes.
func (s *Schema) Check(p Payload, fields ...string) (Input, FieldErrors) {
	in, errs := Decode(p)
	errs.Merge(s.Validate(in, fields...))
	if len(fields) > 0 {
		errs = errs.Only(fields)
	}
	if len(errs) == 0 {
		return in, nil
	}
	return in, errs
}

func (r Rule) passes(in Input, field string) bool {
	switch r.Check {
	case CheckRequired:
		return in.Present(field)
	case CheckMinLen:
		return int64(utf8.RuneCountInString(in.Text(field))) >= r.Limit
	case CheckMaxLen:
		return int64(utf8.RuneCountInString(in.Text(field))) <= r.Limit
	case CheckURL:
		return validURL(in.Text(field))
	case CheckMin:
		n := in.Number(field)
		return n == nil || int64(*n) >= r.Limit
	case CheckOneOf:
		v := in.Text(field)
		return v == "" || slices.Contains(r.Options, v)
	case CheckMaxBytes:
		return in.Avatar == nil || in.Avatar.Size <= r.Limit
	case CheckImageType:
		return in.Avatar == nil || slices.Contains(r.Options, in.Avatar.ContentType)
	}
	return false
}

func validURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.ParseRequestURI(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Text returns a text-valued field, or "" for any other field.
func (in Input) Text(field string) string {
	switch field {
	case FieldUsername:
		return in.Username
	case FieldFullName:
		return in.FullName
	case FieldLocation:
		return in.Location
	case FieldBio:
		return in.Bio
	case FieldLinkedInURL:
		return in.LinkedInURL
	case FieldWebsiteURL:
		return in.WebsiteURL
	case FieldPrimaryRoleSeeking:
		return in.PrimaryRoleSeeking
	case FieldIdeaDescription:
		return in.IdeaDescription
	case FieldIdeaStage:
		return in.IdeaStage
	case FieldCofounderPersonalityTraits:
		return in.CofounderPersonalityTraits
	case FieldCofounderIndustryBackground:
		return in.CofounderIndustryBackground
	case FieldCommitmentLevel:
		return in.CommitmentLevel
	case FieldEquitySplitExpectation:
		return in.EquitySplitExpectation
	case FieldPreferredCofounderLocation:
		return in.PreferredCofounderLocation
	}
	return ""
}

func (in Input) List(field string) []string {
	switch field {
	case FieldCoreSkills:
		return in.CoreSkills
	case FieldIndustryExperience:
		return in.IndustryExperience
	case FieldCofounderLookingForRoles:
		return in.CofounderLookingForRoles
	case FieldCofounderLookingForSkills:
		return in.CofounderLookingForSkills
	case FieldInterests:
		return in.Interests
	}
	return nil
}

func (in Input) Flag(field string) bool {
	switch field {
	case FieldHasIdea:
		return in.HasIdea
	case FieldWillingToRelocate:
		return in.WillingToRelocate
	case FieldAvatarRemoved:
		return in.AvatarRemoved
	}
	return false
}

func (in Input) Number(field string) *int {
	if field == FieldYearsExperience {
		return in.YearsExperience
	}
	return nil
}

// Present reports whether field holds a non-empty value.
func (in Input) Present(field string) bool {
	switch field {
	case FieldAvatar:
		return in.Avatar != nil
	case FieldYearsExperience:
		return in.YearsExperience != nil
	case FieldHasIdea, FieldWillingToRelocate, FieldAvatarRemoved:
		return in.Flag(field)
	}
	return in.Text(field) != "" || len(in.List(field)) > 0
}
