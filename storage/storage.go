package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"crm-api/domain"
)

// boardRowKey is the fixed slot name: the whole record list of a user lives in
// a single entity under their partition.
const boardRowKey = "board"

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	clientsTable  *aztables.Client
	settingsTable *aztables.Client
	alertQueue    queueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, clientsTable, settingsTable, alertQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	ct := svc.NewClient(clientsTable)
	st := svc.NewClient(settingsTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	aq, err := azqueue.NewQueueClientFromConnectionString(connStr, alertQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{clientsTable: ct, settingsTable: st, alertQueue: aq}, nil
}

type boardEntity struct {
	aztables.Entity
	Payload string `json:"Payload"`
}

// decodeBoardEntity extracts the client list from a board slot entity.
// Malformed payloads decode to an empty list so a corrupted slot resets the
// board instead of wedging it.
func decodeBoardEntity(data []byte) []domain.Client {
	var ent boardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return []domain.Client{}
	}
	var clients []domain.Client
	if err := json.Unmarshal([]byte(ent.Payload), &clients); err != nil || clients == nil {
		return []domain.Client{}
	}
	return clients
}

// LoadClients retrieves the full record list for the provided user. A missing
// slot yields an empty list, not an error.
func (s *Storage) LoadClients(ctx context.Context, userID string) ([]domain.Client, error) {
	resp, err := s.clientsTable.GetEntity(ctx, userID, boardRowKey, nil)
	if err != nil {
		if isNotFound(err) {
			return []domain.Client{}, nil
		}
		return nil, err
	}
	return decodeBoardEntity(resp.Value), nil
}

// SaveClients overwrites the user's board slot with the full record list.
func (s *Storage) SaveClients(ctx context.Context, userID string, clients []domain.Client) error {
	payload, err := json.Marshal(clients)
	if err != nil {
		return err
	}
	ent := boardEntity{
		Entity:  aztables.Entity{PartitionKey: userID, RowKey: boardRowKey},
		Payload: string(payload),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.clientsTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func decodeSettingsEntity(data []byte) (domain.Settings, error) {
	var raw struct {
		NotificationsEnabled bool `json:"NotificationsEnabled"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{NotificationsEnabled: raw.NotificationsEnabled}, nil
}

// FetchSettings returns the user's settings. Users without a settings entity
// get the zero value, which leaves notifications disabled.
func (s *Storage) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	ent, err := s.settingsTable.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Settings{}, nil
		}
		return domain.Settings{}, err
	}
	return decodeSettingsEntity(ent.Value)
}

type settingsEntity struct {
	aztables.Entity
	NotificationsEnabled bool `json:"NotificationsEnabled"`
}

// SaveSettings overwrites the user's settings entity.
func (s *Storage) SaveSettings(ctx context.Context, userID string, settings domain.Settings) error {
	ent := settingsEntity{
		Entity:               aztables.Entity{PartitionKey: userID, RowKey: userID},
		NotificationsEnabled: settings.NotificationsEnabled,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.settingsTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// Alert is an outbound notification message for the delivery worker.
type Alert struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// EnqueueAlert hands a fired reminder to the notification delivery queue.
func (s *Storage) EnqueueAlert(ctx context.Context, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = s.alertQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
