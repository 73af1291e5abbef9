package device

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a running broker, e.g. MQTT_TEST_BROKER=tcp://localhost:1883.
func TestMQTTTransport_RoundTrip(t *testing.T) {
	broker := os.Getenv("MQTT_TEST_BROKER")
	if broker == "" {
		t.Skip("MQTT_TEST_BROKER not set, skipping broker test")
	}

	server, err := NewMQTTTransport(broker, "athan-test-server-"+uuid.NewString(), 5*time.Second)
	require.NoError(t, err)
	defer server.Close()

	phone, err := NewMQTTTransport(broker, "athan-test-phone-"+uuid.NewString(), 5*time.Second)
	require.NoError(t, err)
	defer phone.Close()

	deviceID := "test-" + uuid.NewString()
	bridge := NewBridge(server, deviceID)
	require.NoError(t, bridge.Start())

	// the phone answers every permission query with a grant
	require.NoError(t, phone.Subscribe("athan/"+deviceID+"/permission", func(_ string, payload []byte) {
		var req request
		if json.Unmarshal(payload, &req) != nil {
			return
		}
		out, _ := json.Marshal(reply{ID: req.ID, Granted: true})
		_ = phone.Publish("athan/"+deviceID+"/replies", out)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	granted, err := bridge.HasLocationPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)
}
