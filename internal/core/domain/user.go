package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrUserExists  = errors.New("username already exists")
	ErrInvalidUser = errors.New("invalid user")
	ErrEmptyPatch  = errors.New("nothing to update")
)

const maxAge = 150

// User mirrors the backend's user record.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Height    float64   `json:"height"`
	Sex       string    `json:"sex"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type UserInput struct {
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	Height float64 `json:"height"`
	Sex    string  `json:"sex"`
	Email  string  `json:"email"`
}

// UserPatch carries only the fields to change.
type UserPatch struct {
	Name   *string  `json:"name,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Sex    *string  `json:"sex,omitempty"`
	Email  *string  `json:"email,omitempty"`
}

func NewUserInput(name string, age int, height float64, sex, email string) (*UserInput, error) {
	in := &UserInput{
		Name:   strings.TrimSpace(name),
		Age:    age,
		Height: height,
		Sex:    strings.TrimSpace(sex),
		Email:  strings.ToLower(strings.TrimSpace(email)),
	}

	switch {
	case in.Name == "":
		return nil, invalidUser("name is required")
	case in.Sex == "":
		return nil, invalidUser("sex is required")
	}
	if err := validateAge(in.Age); err != nil {
		return nil, err
	}
	if err := validateHeight(in.Height); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	return in, nil
}

// Normalize trims the set fields and validates them.
func (p *UserPatch) Normalize() error {
	if p.Name == nil && p.Age == nil && p.Height == nil && p.Sex == nil && p.Email == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if *p.Name == "" {
			return invalidUser("name cannot be empty")
		}
	}
	if p.Sex != nil {
		*p.Sex = strings.TrimSpace(*p.Sex)
		if *p.Sex == "" {
			return invalidUser("sex cannot be empty")
		}
	}
	if p.Age != nil {
		if err := validateAge(*p.Age); err != nil {
			return err
		}
	}
	if p.Height != nil {
		if err := validateHeight(*p.Height); err != nil {
			return err
		}
	}
	if p.Email != nil {
		*p.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	return nil
}

func validateAge(age int) error {
	if age <= 0 || age > maxAge {
		return invalidUser("age must be between 1 and 150")
	}
	return nil
}

func validateHeight(height float64) error {
	if !(height > 0 && height < 300) {
		return invalidUser("height must be between 0 and 300")
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return invalidUser("invalid email format")
	}
	return nil
}

type userError string

func (e userError) Error() string { return ErrInvalidUser.Error() + ": " + string(e) }
func (e userError) Unwrap() error { return ErrInvalidUser }

func invalidUser(reason string) error { return userError(reason) }
