package models

// FieldClass determines how a raw legacy value is converted before it is
// written to a target column.
type FieldClass string

const (
	ClassText     FieldClass = "text"
	ClassRichText FieldClass = "rich_text"
	ClassEmail    FieldClass = "email"
	ClassURL      FieldClass = "url"
	ClassDate     FieldClass = "date"
	// ClassStatus fields land in the account-state table rather than the profile.
	ClassStatus FieldClass = "status"
)

// TargetField is a field of the target profile schema.
type TargetField struct {
	Key   string     `json:"key" yaml:"key"`
	Label string     `json:"label" yaml:"label"`
	Class FieldClass `json:"class" yaml:"class"`
}

// IsProfileColumn reports whether the field is stored on the profile row.
func (f TargetField) IsProfileColumn() bool {
	return f.Class != ClassStatus
}

// TargetRegistry is the ordered set of target fields. Iteration order is
// part of the contract: suggestion ties and association conflicts are
// resolved in favour of the earlier field.
type TargetRegistry struct {
	fields []TargetField
	index  map[string]int
}

// NewTargetRegistry creates a registry from an ordered field list.
// Later duplicates of a key are ignored.
func NewTargetRegistry(fields []TargetField) *TargetRegistry {
	r := &TargetRegistry{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if _, exists := r.index[f.Key]; exists {
			continue
		}
		r.index[f.Key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

// DefaultTargets returns the registry of the target plugin's profile schema.
func DefaultTargets() *TargetRegistry {
	return NewTargetRegistry(defaultTargetFields)
}

// Lookup returns the field with the given key.
func (r *TargetRegistry) Lookup(key string) (TargetField, bool) {
	i, ok := r.index[key]
	if !ok {
		return TargetField{}, false
	}
	return r.fields[i], true
}

// Has reports whether key is a known target field.
func (r *TargetRegistry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Fields returns the fields in registry order.
func (r *TargetRegistry) Fields() []TargetField {
	out := make([]TargetField, len(r.fields))
	copy(out, r.fields)
	return out
}

// ProfileColumns returns the keys of all fields stored on the profile row.
func (r *TargetRegistry) ProfileColumns() []string {
	var cols []string
	for _, f := range r.fields {
		if f.IsProfileColumn() {
			cols = append(cols, f.Key)
		}
	}
	return cols
}

// Len returns the number of fields.
func (r *TargetRegistry) Len() int {
	return len(r.fields)
}

var defaultTargetFields = []TargetField{
	// Contact and personal
	{Key: "phone", Label: "Phone", Class: ClassText},
	{Key: "mobile_phone", Label: "Mobile Phone", Class: ClassText},
	{Key: "work_phone", Label: "Work Phone", Class: ClassText},
	{Key: "fax", Label: "Fax", Class: ClassText},
	{Key: "preferred_name", Label: "Preferred Name", Class: ClassText},
	{Key: "nickname", Label: "Nickname", Class: ClassText},
	{Key: "pronouns", Label: "Pronouns", Class: ClassText},
	{Key: "gender", Label: "Gender", Class: ClassText},
	{Key: "date_of_birth", Label: "Date of Birth", Class: ClassDate},
	{Key: "timezone", Label: "Timezone", Class: ClassText},
	{Key: "secondary_email", Label: "Secondary Email", Class: ClassEmail},

	// Address
	{Key: "address", Label: "Address", Class: ClassText},
	{Key: "address_line1", Label: "Address Line 1", Class: ClassText},
	{Key: "address_line2", Label: "Address Line 2", Class: ClassText},
	{Key: "city", Label: "City", Class: ClassText},
	{Key: "state", Label: "State", Class: ClassText},
	{Key: "postal_code", Label: "Postal Code", Class: ClassText},
	{Key: "country", Label: "Country", Class: ClassText},

	// Work
	{Key: "company", Label: "Company", Class: ClassText},
	{Key: "job_title", Label: "Job Title", Class: ClassText},
	{Key: "department", Label: "Department", Class: ClassText},
	{Key: "division", Label: "Division", Class: ClassText},
	{Key: "employee_id", Label: "Employee ID", Class: ClassText},
	{Key: "manager_name", Label: "Manager Name", Class: ClassText},
	{Key: "supervisor_email", Label: "Supervisor Email", Class: ClassEmail},
	{Key: "office_location", Label: "Office Location", Class: ClassText},
	{Key: "hire_date", Label: "Hire Date", Class: ClassDate},
	{Key: "termination_date", Label: "Termination Date", Class: ClassDate},
	{Key: "work_email", Label: "Work Email", Class: ClassEmail},
	{Key: "employment_type", Label: "Employment Type", Class: ClassText},
	{Key: "license_number", Label: "License Number", Class: ClassText},
	{Key: "professional_memberships", Label: "Professional Memberships", Class: ClassRichText},
	{Key: "security_clearance", Label: "Security Clearance", Class: ClassText},
	{Key: "emergency_contact", Label: "Emergency Contact", Class: ClassRichText},

	// Education
	{Key: "student_id", Label: "Student ID", Class: ClassText},
	{Key: "school_name", Label: "School Name", Class: ClassText},
	{Key: "degree", Label: "Degree", Class: ClassText},
	{Key: "major", Label: "Major", Class: ClassText},
	{Key: "graduation_year", Label: "Graduation Year", Class: ClassText},
	{Key: "certifications", Label: "Certifications", Class: ClassRichText},

	// Web and social
	{Key: "website", Label: "Website", Class: ClassURL},
	{Key: "twitter", Label: "Twitter", Class: ClassURL},
	{Key: "facebook", Label: "Facebook", Class: ClassURL},
	{Key: "linkedin", Label: "LinkedIn", Class: ClassURL},
	{Key: "instagram", Label: "Instagram", Class: ClassURL},
	{Key: "github", Label: "GitHub", Class: ClassURL},
	{Key: "youtube", Label: "YouTube", Class: ClassURL},
	{Key: "tiktok", Label: "TikTok", Class: ClassURL},
	{Key: "discord_username", Label: "Discord Username", Class: ClassText},
	{Key: "whatsapp", Label: "WhatsApp", Class: ClassText},
	{Key: "telegram", Label: "Telegram", Class: ClassText},
	{Key: "viber", Label: "Viber", Class: ClassText},
	{Key: "twitch", Label: "Twitch", Class: ClassURL},
	{Key: "reddit", Label: "Reddit", Class: ClassURL},
	{Key: "snapchat", Label: "Snapchat", Class: ClassURL},
	{Key: "soundcloud", Label: "SoundCloud", Class: ClassURL},
	{Key: "vimeo", Label: "Vimeo", Class: ClassURL},
	{Key: "spotify", Label: "Spotify", Class: ClassURL},
	{Key: "pinterest", Label: "Pinterest", Class: ClassURL},

	{Key: "bio", Label: "Biography", Class: ClassRichText},

	// Account state
	{Key: "is_verified", Label: "Verified", Class: ClassStatus},
	{Key: "last_login_at", Label: "Last Login", Class: ClassStatus},
	{Key: "account_status", Label: "Account Status", Class: ClassStatus},
}
