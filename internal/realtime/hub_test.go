package realtime

import (
	"encoding/json"
	"testing"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyTheUser(t *testing.T) {
	hub := NewHub()
	alice := hub.Subscribe("alice")
	bob := hub.Subscribe("bob")

	hub.Publish("alice", &models.Notification{ID: "n1", UserID: "alice", Type: models.NotificationSystem})

	frame := <-alice.C
	var ev Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, "notification", ev.Type)
	assert.Equal(t, "n1", ev.Notification.ID)

	select {
	case <-bob.C:
		t.Fatal("bob should not receive alice's notification")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("alice")
	assert.Equal(t, 1, hub.Connections("alice"))

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Connections("alice"))

	_, open := <-sub.C
	assert.False(t, open)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("alice")

	for i := 0; i < subscriptionBuffer+5; i++ {
		hub.Publish("alice", &models.Notification{ID: "n"})
	}
	assert.Len(t, sub.C, subscriptionBuffer)
}
