package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vaultmeet/vaultmeet/internal/model"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Submission carries the raw form fields of an application. Numeric
// fields arrive as strings the way the form posts them.
type Submission struct {
	FullName      string `json:"full_name" form:"full_name"`
	Email         string `json:"email" form:"email"`
	Age           string `json:"age" form:"age"`
	Location      string `json:"location" form:"location"`
	Bio           string `json:"bio" form:"bio"`
	SponsorType   string `json:"sponsor_type" form:"sponsor_type"`     // seekers: desired sponsor category
	SeekerType    string `json:"seeker_type" form:"seeker_type"`       // sponsors: desired seeker category
	MonthlyBudget string `json:"monthly_budget" form:"monthly_budget"` // sponsors only
}

// Parsed holds the typed values of a submission that passed validation.
type Parsed struct {
	FullName      string
	Email         string
	Age           int
	Location      string
	Bio           string
	SponsorType   string
	SeekerType    string
	MonthlyBudget float64
}

var seekerCategories = []string{model.CategorySugarDaddy, model.CategorySugarMummy, model.CategoryEither}
var sponsorCategories = []string{model.CategorySugarDaddy, model.CategorySugarMummy}

// Applicant validates a submission for the given kind. On success the
// errors map is empty and Parsed carries the typed values.
func Applicant(kind model.Kind, in Submission) (Parsed, map[string]string) {
	errs := make(map[string]string)
	var p Parsed

	p.FullName = strings.TrimSpace(in.FullName)
	if p.FullName == "" {
		errs["full_name"] = "Full name is required"
	}

	p.Email = strings.TrimSpace(in.Email)
	if p.Email == "" {
		errs["email"] = "Email is required"
	} else if !emailRe.MatchString(p.Email) {
		errs["email"] = "Email is invalid"
	}

	age := strings.TrimSpace(in.Age)
	if age == "" {
		errs["age"] = "Age is required"
	} else if n, err := strconv.Atoi(age); err != nil || n < 18 {
		errs["age"] = "You must be at least 18"
	} else {
		p.Age = n
	}

	p.Location = strings.TrimSpace(in.Location)
	if p.Location == "" {
		errs["location"] = "Location is required"
	}

	p.Bio = strings.TrimSpace(in.Bio)
	if p.Bio == "" {
		errs["bio"] = "Please tell us about yourself"
	}

	switch kind {
	case model.KindSeeker:
		p.SponsorType = strings.TrimSpace(in.SponsorType)
		if p.SponsorType == "" {
			errs["sponsor_type"] = "Select a sponsor type"
		} else if !oneOf(p.SponsorType, seekerCategories) {
			errs["sponsor_type"] = "Select a sponsor type"
		}
	case model.KindSponsor:
		p.SeekerType = strings.TrimSpace(in.SeekerType)
		if p.SeekerType == "" {
			errs["seeker_type"] = "Select your sponsor type"
		} else if !oneOf(p.SeekerType, sponsorCategories) {
			errs["seeker_type"] = "Select your sponsor type"
		}

		budget := strings.TrimSpace(in.MonthlyBudget)
		if budget == "" {
			errs["monthly_budget"] = "Enter your monthly budget"
		} else if f, err := strconv.ParseFloat(budget, 64); err != nil || f <= 0 {
			errs["monthly_budget"] = "Budget must be a positive number"
		} else {
			p.MonthlyBudget = f
		}
	}

	return p, errs
}

// Contact validates the contact form.
func Contact(name, email, message string) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(name) == "" {
		errs["name"] = "Name is required"
	}
	if e := strings.TrimSpace(email); e == "" {
		errs["email"] = "Email is required"
	} else if !emailRe.MatchString(e) {
		errs["email"] = "Email is invalid"
	}
	if strings.TrimSpace(message) == "" {
		errs["message"] = "Message is required"
	}
	return errs
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
