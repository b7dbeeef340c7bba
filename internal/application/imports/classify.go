package imports

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type CreateAccountRequest struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	OrganizationName string
	Department       string
	Role             domain.Role
	CohortID         string
}

// CreateAccountResult carries everything the collaborator reported about
// one creation attempt; classification happens here, not in the client.
type CreateAccountResult struct {
	StatusCode   int
	Success      bool
	UserID       string
	ErrorMessage string
	ErrorCode    string
}

type AccountCreator interface {
	Create(ctx context.Context, req CreateAccountRequest) (CreateAccountResult, error)
}

func classifyOutcome(record domain.UserRecord, result CreateAccountResult, callErr error) domain.UploadOutcome {
	outcome := domain.UploadOutcome{Email: record.Email, Name: record.FullName()}

	switch {
	case callErr != nil:
		outcome.Status = domain.OutcomeError
		outcome.Message = truncateMessage(callErr.Error())
	case result.ErrorMessage != "":
		outcome.Status = domain.OutcomeError
		outcome.Message = truncateMessage(result.ErrorMessage)
	case result.StatusCode >= 400:
		outcome.Status = domain.OutcomeError
		outcome.Message = fmt.Sprintf("account service returned status %d", result.StatusCode)
	case !result.Success && result.UserID == "":
		outcome.Status = domain.OutcomeError
		outcome.Message = "no success confirmation in response"
	default:
		outcome.Status = domain.OutcomeSuccess
		outcome.Message = "created"
	}

	return outcome
}

func promoteDuplicate(outcome domain.UploadOutcome, result CreateAccountResult, skipExisting bool) domain.UploadOutcome {
	if outcome.Status != domain.OutcomeError || !skipExisting {
		return outcome
	}
	if !domain.IsDuplicateError(outcome.Message, result.ErrorCode) {
		return outcome
	}

	outcome.Status = domain.OutcomeSkipped
	outcome.Message = "account already exists, skipped"
	return outcome
}

func truncateMessage(message string) string {
	const maxLen = 500
	message = strings.TrimSpace(message)
	if len(message) <= maxLen {
		return message
	}
	return message[:maxLen]
}
