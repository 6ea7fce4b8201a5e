package store

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile holds the extended profile of one user. Column names match
// the keys of models.DefaultTargets.
type UserProfile struct {
	ID     uint  `gorm:"primaryKey"`
	UserID int64 `gorm:"column:user_id;uniqueIndex;not null"`

	Phone          string `gorm:"column:phone;size:50"`
	MobilePhone    string `gorm:"column:mobile_phone;size:50"`
	WorkPhone      string `gorm:"column:work_phone;size:50"`
	Fax            string `gorm:"column:fax;size:50"`
	PreferredName  string `gorm:"column:preferred_name;size:100"`
	Nickname       string `gorm:"column:nickname;size:100"`
	Pronouns       string `gorm:"column:pronouns;size:50"`
	Gender         string `gorm:"column:gender;size:50"`
	DateOfBirth    string `gorm:"column:date_of_birth;size:20"`
	Timezone       string `gorm:"column:timezone;size:100"`
	SecondaryEmail string `gorm:"column:secondary_email;size:255"`

	Address      string `gorm:"column:address;type:text"`
	AddressLine1 string `gorm:"column:address_line1;size:255"`
	AddressLine2 string `gorm:"column:address_line2;size:255"`
	City         string `gorm:"column:city;size:100"`
	State        string `gorm:"column:state;size:100"`
	PostalCode   string `gorm:"column:postal_code;size:20"`
	Country      string `gorm:"column:country;size:100"`

	Company                 string `gorm:"column:company;size:255"`
	JobTitle                string `gorm:"column:job_title;size:255"`
	Department              string `gorm:"column:department;size:255"`
	Division                string `gorm:"column:division;size:255"`
	EmployeeID              string `gorm:"column:employee_id;size:100"`
	ManagerName             string `gorm:"column:manager_name;size:255"`
	SupervisorEmail         string `gorm:"column:supervisor_email;size:255"`
	OfficeLocation          string `gorm:"column:office_location;size:255"`
	HireDate                string `gorm:"column:hire_date;size:20"`
	TerminationDate         string `gorm:"column:termination_date;size:20"`
	WorkEmail               string `gorm:"column:work_email;size:255"`
	EmploymentType          string `gorm:"column:employment_type;size:50"`
	LicenseNumber           string `gorm:"column:license_number;size:100"`
	ProfessionalMemberships string `gorm:"column:professional_memberships;type:text"`
	SecurityClearance       string `gorm:"column:security_clearance;size:100"`
	EmergencyContact        string `gorm:"column:emergency_contact;type:text"`

	StudentID      string `gorm:"column:student_id;size:100"`
	SchoolName     string `gorm:"column:school_name;size:255"`
	Degree         string `gorm:"column:degree;size:255"`
	Major          string `gorm:"column:major;size:255"`
	GraduationYear string `gorm:"column:graduation_year;size:10"`
	Certifications string `gorm:"column:certifications;type:text"`

	Website         string `gorm:"column:website;size:500"`
	Twitter         string `gorm:"column:twitter;size:500"`
	Facebook        string `gorm:"column:facebook;size:500"`
	Linkedin        string `gorm:"column:linkedin;size:500"`
	Instagram       string `gorm:"column:instagram;size:500"`
	Github          string `gorm:"column:github;size:500"`
	Youtube         string `gorm:"column:youtube;size:500"`
	Tiktok          string `gorm:"column:tiktok;size:500"`
	DiscordUsername string `gorm:"column:discord_username;size:100"`
	Whatsapp        string `gorm:"column:whatsapp;size:50"`
	Telegram        string `gorm:"column:telegram;size:100"`
	Viber           string `gorm:"column:viber;size:50"`
	Twitch          string `gorm:"column:twitch;size:500"`
	Reddit          string `gorm:"column:reddit;size:500"`
	Snapchat        string `gorm:"column:snapchat;size:500"`
	Soundcloud      string `gorm:"column:soundcloud;size:500"`
	Vimeo           string `gorm:"column:vimeo;size:500"`
	Spotify         string `gorm:"column:spotify;size:500"`
	Pinterest       string `gorm:"column:pinterest;size:500"`

	Bio string `gorm:"column:bio;type:text"`

	ProfilePhoto string `gorm:"column:profile_photo;size:500"`
	CoverPhoto   string `gorm:"column:cover_photo;size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserData holds account state for one user.
type UserData struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           int64 `gorm:"column:user_id;uniqueIndex;not null"`
	IsVerified       bool  `gorm:"column:is_verified;not null;default:false"`
	VerifiedDate     *time.Time
	IsApproved       bool `gorm:"column:is_approved;not null;default:false"`
	ApprovedDate     *time.Time
	RequiresApproval bool   `gorm:"column:requires_approval;not null;default:false"`
	IsDisabled       bool   `gorm:"column:is_disabled;not null;default:false"`
	DisabledReason   string `gorm:"column:disabled_reason;size:100"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Visibility values for content restrictions
const (
	VisibilityEveryone  = "everyone"
	VisibilityLoggedOut = "logged_out"
	VisibilityLoggedIn  = "logged_in"
	VisibilityRoleBased = "role_based"
)

// Restriction actions
const (
	ActionMessage  = "message"
	ActionRedirect = "redirect"
)

// ContentRestriction limits who may view one piece of content.
type ContentRestriction struct {
	ID                uint     `gorm:"primaryKey"`
	ContentID         int64    `gorm:"column:content_id;not null;uniqueIndex:idx_content_restriction,priority:1"`
	ContentType       string   `gorm:"column:content_type;size:20;not null;uniqueIndex:idx_content_restriction,priority:2"`
	Visibility        string   `gorm:"column:visibility;size:20;not null"`
	AllowedRoles      []string `gorm:"column:allowed_roles;serializer:json;type:text"`
	RestrictionAction string   `gorm:"column:restriction_action;size:20;not null"`
	CustomMessage     string   `gorm:"column:custom_message;type:text"`
	RedirectURL       string   `gorm:"column:redirect_url;size:500"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CustomRole is a role definition owned by the target plugin.
type CustomRole struct {
	ID           uint              `gorm:"primaryKey"`
	RoleKey      string            `gorm:"column:role_key;size:100;uniqueIndex;not null"`
	RoleName     string            `gorm:"column:role_name;size:255;not null"`
	Capabilities datatypes.JSONMap `gorm:"column:capabilities"`
	Priority     int               `gorm:"column:priority;not null;default:0"`
	Source       string            `gorm:"column:source;size:50"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MappingPreset is a saved field mapping table.
type MappingPreset struct {
	ID            uint           `gorm:"primaryKey"`
	PluginSlug    string         `gorm:"column:plugin_slug;size:100;not null;uniqueIndex:idx_mapping_preset,priority:1"`
	PresetName    string         `gorm:"column:preset_name;size:191;not null;uniqueIndex:idx_mapping_preset,priority:2"`
	PresetVersion int            `gorm:"column:preset_version;not null;default:1"`
	Mappings      datatypes.JSON `gorm:"column:mappings"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
