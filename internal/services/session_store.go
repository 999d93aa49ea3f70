package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Samir899/SpendVolt/internal/session"
)

const sessionPartition = "SESSION"

// TableStore keeps the signed-in session in Azure Table Storage, one row per
// device.
type TableStore struct {
	client *aztables.Client
	device string
}

var _ session.Store = (*TableStore)(nil)

type sessionEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Token        string `json:"Token"`
	Username     string `json:"Username"`
	SavedAt      string `json:"SavedAt"`
}

// NewTableStore creates a TableStore for TABLE_SERVICE_URL. SESSION_TABLE and
// DEVICE_ID override the table name and row key.
func NewTableStore(ctx context.Context) (*TableStore, error) {
	tableURL := os.Getenv("TABLE_SERVICE_URL")
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}
	tableName := os.Getenv("SESSION_TABLE")
	if tableName == "" {
		tableName = "sessions"
	}
	device := os.Getenv("DEVICE_ID")
	if device == "" {
		device, _ = os.Hostname()
	}
	if device == "" {
		device = "default"
	}

	var client *aztables.ServiceClient
	if isLocal(tableURL) {
		slog.Info("using Azurite credentials for session store")
		name, key := azuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	if _, err := client.CreateTable(ctx, tableName, nil); err != nil && !hasErrorCode(err, "TableAlreadyExists") {
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	slog.Info("session store initialized successfully", "table_url", tableURL, "table", tableName, "device", device)
	return &TableStore{client: client.NewClient(tableName), device: device}, nil
}

// Load returns the stored session, or empty strings if there is none.
func (s *TableStore) Load(ctx context.Context) (string, string, error) {
	resp, err := s.client.GetEntity(ctx, sessionPartition, s.device, nil)
	if err != nil {
		if hasErrorCode(err, "ResourceNotFound") {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read session: %w", err)
	}

	var entity sessionEntity
	if err := json.Unmarshal(resp.Value, &entity); err != nil {
		return "", "", fmt.Errorf("failed to decode session: %w", err)
	}
	return entity.Token, entity.Username, nil
}

func (s *TableStore) Save(ctx context.Context, token, username string) error {
	data, err := json.Marshal(sessionEntity{
		PartitionKey: sessionPartition,
		RowKey:       s.device,
		Token:        token,
		Username:     username,
		SavedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if _, err := s.client.UpsertEntity(ctx, data, nil); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *TableStore) Clear(ctx context.Context) error {
	_, err := s.client.DeleteEntity(ctx, sessionPartition, s.device, nil)
	if err != nil && !hasErrorCode(err, "ResourceNotFound") {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
