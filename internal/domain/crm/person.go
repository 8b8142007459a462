package crm

import (
	"regexp"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

const (
	personNameMaxLength = 100
	phoneMaxLength      = 15
	avatarMaxLength     = 500
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// Person holds the contact data shared by sales people and customers
type Person struct {
	FirstName    string // surname
	SecondName   string // given name
	PhoneNumber  string
	MobileNumber string
	Avatar       string // object storage key
}

// NewPerson validates and normalizes contact data
func NewPerson(firstName, secondName, phone, mobile string) (Person, error) {
	p := Person{
		FirstName:    strings.TrimSpace(firstName),
		SecondName:   strings.TrimSpace(secondName),
		PhoneNumber:  strings.TrimSpace(phone),
		MobileNumber: strings.TrimSpace(mobile),
	}
	if err := p.Validate(); err != nil {
		return Person{}, err
	}
	return p, nil
}

// Validate checks the person invariants
func (p Person) Validate() error {
	if err := validatePersonName("first_name", p.FirstName); err != nil {
		return err
	}
	if err := validatePersonName("second_name", p.SecondName); err != nil {
		return err
	}
	if err := ValidatePhone("phone_number", p.PhoneNumber); err != nil {
		return err
	}
	if err := ValidatePhone("mobile_number", p.MobileNumber); err != nil {
		return err
	}
	if len(p.Avatar) > avatarMaxLength {
		return shared.NewFieldError("INVALID_AVATAR", "avatar", "Avatar key cannot exceed 500 characters")
	}
	return nil
}

// FullName returns "<first> <second>"
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.SecondName)
}

// ValidatePhone accepts an empty value or a number like +999999999 with up to 15 digits
func ValidatePhone(field, phone string) error {
	if phone == "" {
		return nil
	}
	if len(phone) > phoneMaxLength || !phonePattern.MatchString(phone) {
		return shared.NewFieldError("INVALID_PHONE", field,
			"Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed.")
	}
	return nil
}

func validatePersonName(field, name string) error {
	if name == "" {
		return shared.NewFieldError("INVALID_NAME", field, "Name cannot be empty")
	}
	if len([]rune(name)) > personNameMaxLength {
		return shared.NewFieldError("INVALID_NAME", field, "Name cannot exceed 100 characters")
	}
	return nil
}
