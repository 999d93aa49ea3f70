package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Samir899/SpendVolt/internal/alerts"
)

const emailScope = "https://communication.azure.com//.default"

// EmailService sends mail through the Azure Communication Services REST API.
type EmailService struct {
	endpoint   string
	sender     string
	cred       azcore.TokenCredential
	httpClient *http.Client
}

var _ alerts.Notifier = (*EmailService)(nil)

// NewEmailService reads COMMUNICATION_SERVICES_ENDPOINT and SENDER_EMAIL. A nil
// cred falls back to DefaultAzureCredential.
func NewEmailService(cred azcore.TokenCredential) (*EmailService, error) {
	endpoint := os.Getenv("COMMUNICATION_SERVICES_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("COMMUNICATION_SERVICES_ENDPOINT environment variable is required")
	}

	sender := os.Getenv("SENDER_EMAIL")
	if sender == "" {
		return nil, fmt.Errorf("SENDER_EMAIL environment variable is required")
	}

	if cred == nil {
		var err error
		cred, err = newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
	}

	return &EmailService{
		endpoint:   endpoint,
		sender:     sender,
		cred:       cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type emailAddress struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName,omitempty"`
}

type emailRecipients struct {
	To []emailAddress `json:"to"`
}

type emailContent struct {
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	PlainText string `json:"plainText,omitempty"`
}

type emailRequest struct {
	SenderAddress string          `json:"senderAddress"`
	Content       emailContent    `json:"content"`
	Recipients    emailRecipients `json:"recipients"`
}

// SendEmail sends one HTML message to every address in to.
func (s *EmailService) SendEmail(ctx context.Context, to []emailAddress, content emailContent) error {
	token, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{emailScope}})
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	jsonBody, err := json.Marshal(emailRequest{
		SenderAddress: s.sender,
		Content:       content,
		Recipients:    emailRecipients{To: to},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	url := fmt.Sprintf("%s/emails:send?api-version=2023-03-31", s.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	slog.Info("email sent successfully", "recipients", len(to), "subject", content.Subject)
	return nil
}

// SendBudgetWarning mails the month-to-date spending summary.
func (s *EmailService) SendBudgetWarning(ctx context.Context, w alerts.BudgetWarning) error {
	content := emailContent{
		Subject:   BudgetWarningSubject(w),
		HTML:      RenderBudgetWarning(w),
		PlainText: RenderBudgetWarningText(w),
	}
	return s.SendEmail(ctx, []emailAddress{{Address: w.Email, DisplayName: w.Name}}, content)
}
