package bot

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// Per-step validation happens as each field arrives so the user gets a
// specific re-prompt immediately. The whole draft is validated once more at
// completion, reporting every violation, which also covers skipped fields.

func checkLength(label, value string, min, max int) error {
	n := len([]rune(value))
	if n < min {
		return fmt.Errorf("%s must be at least %d characters long", label, min)
	}
	if n > max {
		return fmt.Errorf("%s must be %d characters or less", label, max)
	}
	return nil
}

func checkURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("please provide a valid URL")
	}
	return nil
}

// draftViolations validates the accumulated draft against the full field
// schema and returns one user-facing message per violated constraint.
func (b *Bot) draftViolations(draft *ListingDraft) []string {
	err := b.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid listing data"}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, draftViolationMessage(fe))
	}
	return msgs
}

func draftViolationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		if fe.Tag() == "max" {
			return "Title must be 100 characters or less"
		}
		return "Title must be at least 3 characters long"
	case "Description":
		if fe.Tag() == "max" {
			return "Description must be 1000 characters or less"
		}
		return "Description must be at least 10 characters long"
	case "Price":
		return "Price must be 50 characters or less"
	case "Location":
		if fe.Tag() == "max" {
			return "Location must be 100 characters or less"
		}
		return "Location must be at least 2 characters long"
	case "Contact":
		if fe.Tag() == "max" {
			return "Contact must be 100 characters or less"
		}
		return "Contact must be at least 2 characters long"
	case "MarketplaceLink":
		return "Please provide a valid URL for the marketplace link"
	case "Photos":
		return "Maximum 5 photos allowed"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
