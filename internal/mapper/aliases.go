package mapper

// DefaultAliases maps common legacy field names, already normalized to
// snake_case, to target keys.
func DefaultAliases() map[string]string {
	return map[string]string{
		"tel":             "phone",
		"telephone":       "phone",
		"phone_number":    "phone",
		"home_phone":      "phone",
		"mobile":          "mobile_phone",
		"cell":            "mobile_phone",
		"cell_phone":      "mobile_phone",
		"mobile_number":   "mobile_phone",
		"office_phone":    "work_phone",
		"business_phone":  "work_phone",
		"zip":             "postal_code",
		"zip_code":        "postal_code",
		"zipcode":         "postal_code",
		"postcode":        "postal_code",
		"post_code":       "postal_code",
		"dob":             "date_of_birth",
		"birthday":        "date_of_birth",
		"birth_date":      "date_of_birth",
		"birthdate":       "date_of_birth",
		"about":           "bio",
		"about_me":        "bio",
		"biography":       "bio",
		"description":     "bio",
		"organization":    "company",
		"organisation":    "company",
		"employer":        "company",
		"title":           "job_title",
		"position":        "job_title",
		"occupation":      "job_title",
		"street":          "address_line1",
		"street_address":  "address_line1",
		"address_1":       "address_line1",
		"address_2":       "address_line2",
		"town":            "city",
		"province":        "state",
		"region":          "state",
		"county":          "state",
		"web":             "website",
		"url":             "website",
		"homepage":        "website",
		"site":            "website",
		"user_url":        "website",
		"sex":             "gender",
		"linkedin_url":    "linkedin",
		"linked_in":       "linkedin",
		"twitter_handle":  "twitter",
		"x":               "twitter",
		"discord":         "discord_username",
		"graduation":      "graduation_year",
		"school":          "school_name",
		"university":      "school_name",
		"email_secondary": "secondary_email",
		"alternate_email": "secondary_email",
	}
}
