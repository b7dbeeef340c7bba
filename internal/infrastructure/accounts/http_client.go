package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
)

const maxResponseBytes = 1 << 20

// Client talks to the platform's account-creation endpoint. It only carries
// the wire contract; deciding whether a reply counts as success, error, or
// duplicate is the executor's job.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type createAccountPayload struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	OrganizationName string  `json:"organization_name"`
	Department       string  `json:"department"`
	Role             string  `json:"role"`
	CohortID         *string `json:"cohort_id"`
}

type createAccountResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	User    *struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (c *Client) Create(ctx context.Context, req app.CreateAccountRequest) (app.CreateAccountResult, error) {
	body, err := json.Marshal(createAccountPayload{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		OrganizationName: req.OrganizationName,
		Department:       req.Department,
		Role:             string(req.Role),
		CohortID:         nullableText(req.CohortID),
	})
	if err != nil {
		return app.CreateAccountResult{}, fmt.Errorf("encode create account request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return app.CreateAccountResult{}, fmt.Errorf("build create account request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return app.CreateAccountResult{}, fmt.Errorf("call account service: %w", err)
	}
	defer resp.Body.Close()

	result := app.CreateAccountResult{StatusCode: resp.StatusCode}

	var payload createAccountResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		if resp.StatusCode >= 400 {
			// Error statuses sometimes come with non-JSON bodies; the status
			// alone is enough to classify the attempt.
			return result, nil
		}
		return result, fmt.Errorf("decode account service response: %w", err)
	}

	result.Success = payload.Success
	result.ErrorMessage = payload.Error
	result.ErrorCode = payload.Code
	if payload.Status >= 400 && result.StatusCode < 400 {
		result.StatusCode = payload.Status
	}
	if payload.User != nil {
		result.UserID = payload.User.ID
	}

	return result, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
