package feed

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchplan/pkg/models"
)

func TestPublishReachesTCPClient(t *testing.T) {
	hub := NewHub()

	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	hub.Add(server)
	assert.Equal(t, 1, hub.Count())

	go hub.Publish(models.ActivityEntry{
		LogID:     7,
		Username:  "shruti123",
		TableName: "media",
		Operation: "UPDATE",
		RecordID:  "M001",
		Details:   "changed title",
		ChangedAt: time.Now().UTC(),
	})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(line, &ev))
	assert.Equal(t, "activity", ev.Type)
	assert.Equal(t, int64(7), ev.LogID)
	assert.Equal(t, "shruti123", ev.Username)
	assert.Equal(t, "media", ev.TableName)
	assert.Equal(t, "UPDATE", ev.Operation)
	assert.Equal(t, "M001", ev.RecordID)
}

func TestDeadClientIsDropped(t *testing.T) {
	hub := NewHub()

	server, client := net.Pipe()
	hub.Add(server)
	require.NoError(t, client.Close())
	require.NoError(t, server.Close())

	hub.Publish(models.ActivityEntry{
		LogID:     1,
		Username:  "system",
		TableName: "media",
		Operation: "INSERT",
	})
	assert.Equal(t, 0, hub.Count())
}

func TestEventSummary(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 30, 1, 0, time.Local)

	ev := Event{
		Type:      "activity",
		Username:  "shruti123",
		TableName: "media",
		Operation: "UPDATE",
		RecordID:  "M001",
		Details:   "changed title",
		ChangedAt: at,
	}
	assert.Equal(t, "12:30:01 UPDATE media/M001 by shruti123: changed title", ev.Summary())

	// no record id and no details
	ev = Event{
		Username:  "system",
		TableName: "genres",
		Operation: "INSERT",
		ChangedAt: at,
	}
	assert.Equal(t, "12:30:01 INSERT genres by system", ev.Summary())
}

func TestWelcomeLine(t *testing.T) {
	hub := NewHub()

	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	go hub.Welcome(server)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(line, &msg))
	assert.Equal(t, "welcome", msg["type"])
}
