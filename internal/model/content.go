package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultRating is the star rating given to a testimonial created without one.
const DefaultRating = 5

var errRatingRange = errors.New("must be between 1 and 5")

// Testimonial is a client quote shown on the site when active.
type Testimonial struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Company    string    `json:"company"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	LogoURL    string    `json:"logo_url"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type TestimonialInput struct {
	ClientName string `json:"client_name"`
	Company    string `json:"company"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Rating     *int   `json:"rating"`
	LogoURL    string `json:"logo_url"`
	IsActive   *bool  `json:"is_active"`
}

func (in TestimonialInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ClientName, validation.Required),
		validation.Field(&in.Company, validation.Required),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Rating, validation.By(ratingRule)),
	)
}

// ratingRule checks 1..5 explicitly; ozzo's Min skips zero values.
func ratingRule(value interface{}) error {
	r, ok := value.(*int)
	if !ok || r == nil {
		return nil
	}
	if *r < 1 || *r > 5 {
		return errRatingRange
	}
	return nil
}

func (in TestimonialInput) NewTestimonial() Testimonial {
	return Testimonial{
		ID:         NewID(),
		ClientName: in.ClientName,
		Company:    in.Company,
		Role:       in.Role,
		Content:    in.Content,
		Rating:     intOr(in.Rating, DefaultRating),
		LogoURL:    in.LogoURL,
		IsActive:   boolOr(in.IsActive, true),
		CreatedAt:  Now(),
	}
}

// Project is a portfolio case study.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Challenge   string    `json:"challenge"`
	Solution    string    `json:"solution"`
	Results     string    `json:"results"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Year        string    `json:"year"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Challenge   string `json:"challenge"`
	Solution    string `json:"solution"`
	Results     string `json:"results"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	Year        string `json:"year"`
	IsFeatured  bool   `json:"is_featured"`
}

func (in ProjectInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Description, validation.Required),
	)
}

func (in ProjectInput) NewProject() Project {
	return Project{
		ID:          NewID(),
		Title:       in.Title,
		Description: in.Description,
		Challenge:   in.Challenge,
		Solution:    in.Solution,
		Results:     in.Results,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Year:        in.Year,
		IsFeatured:  in.IsFeatured,
		CreatedAt:   Now(),
	}
}

// ContactMessage is an inbound message from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

func (in ContactInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(2, 0)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Message, validation.Required, validation.Length(10, 0)),
	)
}

func (in ContactInput) NewContact() ContactMessage {
	return ContactMessage{
		ID:        NewID(),
		Name:      in.Name,
		Email:     NormalizeEmail(in.Email),
		Phone:     in.Phone,
		Company:   in.Company,
		Message:   in.Message,
		CreatedAt: Now(),
	}
}
