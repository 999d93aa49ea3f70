package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Samir899/SpendVolt/internal/alerts"
	"github.com/Samir899/SpendVolt/internal/analytics"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCredential implements azcore.TokenCredential for testing.
type MockCredential struct{}

func (m *MockCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     "mock-token",
		ExpiresOn: time.Now().Add(1 * time.Hour),
	}, nil
}

func sampleWarning() alerts.BudgetWarning {
	spent := decimal.NewFromInt(8500)
	budget := decimal.NewFromInt(10000)
	return alerts.BudgetWarning{
		Name:     "Asha <3",
		Email:    "asha@example.com",
		Currency: models.CurrencyINR,
		Spent:    spent,
		Budget:   budget,
		Usage:    analytics.BudgetUsage(spent, budget, 0.8),
		Month:    time.May,
		Year:     2024,
		TopSpends: []models.Transaction{
			{MerchantName: "Big & Small", CategoryName: "Grocery", Amount: decimal.NewFromInt(4000)},
		},
	}
}

func TestEmailService_SendBudgetWarning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails:send", r.URL.Path)
		assert.Equal(t, "2023-03-31", r.URL.Query().Get("api-version"))
		assert.Equal(t, "Bearer mock-token", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req emailRequest
		require.NoError(t, json.Unmarshal(body, &req))

		assert.Equal(t, "sender@test.com", req.SenderAddress)
		require.Len(t, req.Recipients.To, 1)
		assert.Equal(t, "asha@example.com", req.Recipients.To[0].Address)
		assert.Equal(t, "SpendVolt - 85% of your May budget used", req.Content.Subject)
		assert.Contains(t, req.Content.HTML, "₹8500.00")
		assert.NotEmpty(t, req.Content.PlainText)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	t.Setenv("COMMUNICATION_SERVICES_ENDPOINT", server.URL)
	t.Setenv("SENDER_EMAIL", "sender@test.com")

	service, err := NewEmailService(&MockCredential{})
	require.NoError(t, err)

	err = service.SendBudgetWarning(context.Background(), sampleWarning())
	assert.NoError(t, err)
}

func TestEmailService_SendEmail_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Error"))
	}))
	defer server.Close()

	t.Setenv("COMMUNICATION_SERVICES_ENDPOINT", server.URL)
	t.Setenv("SENDER_EMAIL", "sender@test.com")

	service, err := NewEmailService(&MockCredential{})
	require.NoError(t, err)

	err = service.SendEmail(context.Background(), []emailAddress{{Address: "a@b.com"}}, emailContent{Subject: "Sub", HTML: "Body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNewEmailService_RequiresConfig(t *testing.T) {
	t.Setenv("COMMUNICATION_SERVICES_ENDPOINT", "")
	t.Setenv("SENDER_EMAIL", "sender@test.com")

	_, err := NewEmailService(&MockCredential{})
	assert.Error(t, err)
}

func TestRenderBudgetWarning(t *testing.T) {
	w := sampleWarning()
	body := RenderBudgetWarning(w)

	assert.Contains(t, body, "Asha &lt;3")
	assert.Contains(t, body, "Big &amp; Small")
	assert.Contains(t, body, "close to your monthly budget")
	assert.Contains(t, body, "May 2024")

	w.Spent = decimal.NewFromInt(12000)
	w.Usage = analytics.BudgetUsage(w.Spent, w.Budget, 0.8)
	assert.Contains(t, RenderBudgetWarning(w), "gone over")
	assert.Equal(t, "SpendVolt - May budget exceeded", BudgetWarningSubject(w))

	w.TopSpends = nil
	assert.Empty(t, RenderTopSpends(w))
}
