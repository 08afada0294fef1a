package usecase

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func joinValidationErrors(errs []ValidationError) *DomainError {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
	}
	return ErrValidation("validation failed: " + strings.Join(parts, ", "))
}

func ValidateCreateBookingInput(input CreateBookingInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.WebsiteID) == "" {
		errors = append(errors, ValidationError{"website_id", "is required"})
	}

	if strings.TrimSpace(input.CustomerName) == "" {
		errors = append(errors, ValidationError{"customer_name", "is required"})
	} else if len(input.CustomerName) > 200 {
		errors = append(errors, ValidationError{"customer_name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.CustomerEmail) == "" {
		errors = append(errors, ValidationError{"customer_email", "is required"})
	} else if _, err := mail.ParseAddress(input.CustomerEmail); err != nil {
		errors = append(errors, ValidationError{"customer_email", "is invalid"})
	}

	if strings.TrimSpace(input.Date) == "" {
		errors = append(errors, ValidationError{"date", "is required"})
	} else if !isValidDate(input.Date) {
		errors = append(errors, ValidationError{"date", "must be a valid date (YYYY-MM-DD)"})
	}

	if strings.TrimSpace(input.StartTime) == "" {
		errors = append(errors, ValidationError{"start_time", "is required"})
	}

	return errors
}

func ValidateCreateDealInput(input CreateDealInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.LeadID) == "" {
		errors = append(errors, ValidationError{"lead_id", "is required"})
	}

	if input.Amount <= 0 {
		errors = append(errors, ValidationError{"amount", "must be positive"})
	}

	if input.IsRecurring && input.RecurringAmount <= 0 {
		errors = append(errors, ValidationError{"recurring_amount", "must be positive for recurring deals"})
	}

	return errors
}

func ValidateSendProposalInput(input SendProposalInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.LeadID) == "" {
		errors = append(errors, ValidationError{"lead_id", "is required"})
	}

	if strings.TrimSpace(input.Title) == "" {
		errors = append(errors, ValidationError{"title", "is required"})
	}

	if input.Amount <= 0 {
		errors = append(errors, ValidationError{"amount", "must be positive"})
	}

	if strings.TrimSpace(input.RecipientEmail) == "" {
		errors = append(errors, ValidationError{"recipient_email", "is required"})
	} else if _, err := mail.ParseAddress(input.RecipientEmail); err != nil {
		errors = append(errors, ValidationError{"recipient_email", "is invalid"})
	}

	return errors
}

func isValidDate(dateStr string) bool {
	_, err := time.Parse("2006-01-02", dateStr)
	return err == nil
}
