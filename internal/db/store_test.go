//go:build integration

// Package db contains integration tests against a real SurrealDB.
// Run with: go test -tags integration ./internal/db/...
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

var testClient *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testClient, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testClient.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testClient.Close(ctx)
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

func freshStore(t *testing.T) *Store {
	t.Helper()
	require.NoError(t, testClient.WipeData(context.Background()))
	return NewStore(testClient, nil, nil)
}

func TestStore_SaveAndLoadMessages(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	ts := time.Now().UTC().Truncate(time.Millisecond)
	msgs := []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "hello", Timestamp: ts, BranchID: "default"},
		{ID: "m2", Role: models.RoleAssistant, Content: "hi there", Timestamp: ts.Add(time.Second), BranchID: "default",
			Files: nil},
		{ID: "m3", Role: models.RoleUser, Content: "with file", Timestamp: ts.Add(2 * time.Second), BranchID: "side",
			Files: []models.Attachment{{ID: "f1", Name: "brief.txt", Type: "text/plain", Size: 12, Content: "Launch in Q3"}}},
	}
	require.NoError(t, store.SaveMessages(ctx, "kate-smith", msgs))

	state, err := store.Load(ctx)
	require.NoError(t, err)

	got := state.Messages["kate-smith"]
	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, models.RoleUser, got[0].Role)
	assert.Equal(t, "default", got[0].BranchID)
	assert.True(t, got[0].Timestamp.Equal(ts), "timestamp should round-trip")
	require.Len(t, got[2].Files, 1)
	assert.Equal(t, "brief.txt", got[2].Files[0].Name)
	assert.Equal(t, "Launch in Q3", got[2].Files[0].Content)
}

func TestStore_SaveMessagesReplacesSlice(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, store.SaveMessages(ctx, "p1", []models.Message{
		{ID: "old1", Role: models.RoleUser, Content: "old", Timestamp: ts, BranchID: "default"},
		{ID: "old2", Role: models.RoleAssistant, Content: "older", Timestamp: ts, BranchID: "default"},
	}))
	require.NoError(t, store.SaveMessages(ctx, "p1", []models.Message{
		{ID: "new1", Role: models.RoleUser, Content: "new", Timestamp: ts, BranchID: "default"},
	}))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state.Messages["p1"], 1)
	assert.Equal(t, "new1", state.Messages["p1"][0].ID)
}

func TestStore_SaveEmptySliceClearsRows(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessages(ctx, "p1", []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "x", Timestamp: time.Now(), BranchID: "default"},
	}))
	require.NoError(t, store.SaveMessages(ctx, "p1", nil))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Messages["p1"])
}

func TestStore_SaveAndLoadBranches(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Millisecond)
	branches := []models.Branch{
		{ID: "default", Name: "Main Conversation", CreatedAt: created},
		{ID: "b2", Name: "alt take", CreatedAt: created.Add(time.Minute), ParentMessageID: "m1"},
	}
	require.NoError(t, store.SaveBranches(ctx, "kate-smith", branches))
	require.NoError(t, store.SaveActiveBranch(ctx, "kate-smith", "b2"))

	state, err := store.Load(ctx)
	require.NoError(t, err)

	got := state.Branches["kate-smith"]
	require.Len(t, got, 2)
	assert.Equal(t, "default", got[0].ID)
	assert.Empty(t, got[0].ParentMessageID)
	assert.Equal(t, "b2", got[1].ID)
	assert.Equal(t, "m1", got[1].ParentMessageID)
	assert.Equal(t, "b2", state.Active["kate-smith"])
}

func TestStore_SaveActiveBranchReplacesCursor(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveActiveBranch(ctx, "p1", "default"))
	require.NoError(t, store.SaveActiveBranch(ctx, "p1", "b7"))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b7", state.Active["p1"])
}

func TestStore_PersonasAreIsolated(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, store.SaveMessages(ctx, "p1", []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "one", Timestamp: ts, BranchID: "default"},
	}))
	require.NoError(t, store.SaveMessages(ctx, "p2", []models.Message{
		{ID: "m2", Role: models.RoleUser, Content: "two", Timestamp: ts, BranchID: "default"},
	}))

	require.NoError(t, store.SaveMessages(ctx, "p1", nil))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Messages["p1"])
	require.Len(t, state.Messages["p2"], 1)
}

func TestStore_DeletePersona(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, store.SaveMessages(ctx, "p1", []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "x", Timestamp: ts, BranchID: "default"},
	}))
	require.NoError(t, store.SaveBranches(ctx, "p1", []models.Branch{
		{ID: "default", Name: "Main Conversation", CreatedAt: ts},
	}))
	require.NoError(t, store.SaveActiveBranch(ctx, "p1", "default"))

	require.NoError(t, store.DeletePersona(ctx, "p1"))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Messages["p1"])
	assert.Empty(t, state.Branches["p1"])
	assert.Empty(t, state.Active["p1"])
}
