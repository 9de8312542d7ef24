package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           int64             `json:"id"`
	Role         string            `json:"role"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Phone        string            `json:"phone"`
	DateOfBirth  *time.Time        `json:"date_of_birth,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	Address      *Address          `json:"address,omitempty"`
	Verification VerificationState `json:"verification"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Valid user roles
const (
	RoleRenter = "renter"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

var validRoles = map[string]bool{
	RoleRenter: true,
	RoleOwner:  true,
	RoleAdmin:  true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

type UserInfo struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Phone        string            `json:"phone"`
	Role         string            `json:"role"`
	Verification VerificationState `json:"verification"`
}

// ProfileRequest carries the profile step's form fields.
type ProfileRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Bio         string `json:"bio"`

	dob time.Time
}

// AddressRequest carries the address step's form fields.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

const (
	MinBioLength = 50
	MinimumAge   = 18
)

// Countries accepted by the address step.
var SupportedCountries = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"ES": "Spain",
	"IT": "Italy",
	"NL": "Netherlands",
	"AU": "Australia",
	"NZ": "New Zealand",
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^[\+]?[\d\s\-\(\)]+$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func isValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone) && len(phone) >= 7
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Role == "" {
		r.Role = RoleRenter
	}
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if !validRoles[r.Role] {
		return fmt.Errorf("invalid role")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (r *ProfileRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Bio = strings.TrimSpace(r.Bio)
}

// Validate checks every profile field. The age check counts whole years: a
// user is 18 on their 18th birthday, not the day before.
func (r *ProfileRequest) Validate(now time.Time) error {
	if r.FirstName == "" {
		return fmt.Errorf("first name is required")
	}
	if r.LastName == "" {
		return fmt.Errorf("last name is required")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !isValidPhone(r.Phone) {
		return fmt.Errorf("invalid phone format")
	}
	if r.DateOfBirth == "" {
		return fmt.Errorf("date of birth is required")
	}
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return fmt.Errorf("invalid date of birth, expected YYYY-MM-DD")
	}
	if AgeAt(dob, now) < MinimumAge {
		return fmt.Errorf("you must be at least %d years old", MinimumAge)
	}
	r.dob = dob
	if len(r.Bio) < MinBioLength {
		return fmt.Errorf("bio must be at least %d characters", MinBioLength)
	}
	return nil
}

// BirthDate returns the parsed date of birth. Only valid after Validate.
func (r *ProfileRequest) BirthDate() time.Time {
	return r.dob
}

// AgeAt returns the whole-year age of someone born on dob as of now.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

func (r *AddressRequest) Normalize() {
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
}

// Validate checks presence only; no format or geocoding validation beyond
// the country code being in the supported list.
func (r *AddressRequest) Validate() error {
	if r.Street == "" {
		return fmt.Errorf("street is required")
	}
	if r.City == "" {
		return fmt.Errorf("city is required")
	}
	if r.State == "" {
		return fmt.Errorf("state is required")
	}
	if r.PostalCode == "" {
		return fmt.Errorf("postal code is required")
	}
	if r.Country == "" {
		return fmt.Errorf("country is required")
	}
	if _, ok := SupportedCountries[r.Country]; !ok {
		return fmt.Errorf("unsupported country: %s", r.Country)
	}
	return nil
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Role:         u.Role,
		Verification: u.Verification,
	}
}
