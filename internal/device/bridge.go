// Package device drives the phone or screen that plays the adhan: audio playback,
// native confirmation dialogs and the location permission query all travel as
// request/reply messages under athan/<deviceID>/.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Choice is how a confirmation prompt ended.
type Choice int

const (
	// ChoiceDismissed covers "exit" and a dialog closed without a selection.
	ChoiceDismissed Choice = iota
	ChoiceStopped
)

func (c Choice) String() string {
	if c == ChoiceStopped {
		return "stopped"
	}
	return "dismissed"
}

// stopChoice is the button index the device reports for the first ("stop") button.
const stopChoice = 1

// PermissionCoarseLocation is the capability queried before refreshing the location.
const PermissionCoarseLocation = "ACCESS_COARSE_LOCATION"

type Prompt struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Buttons []string `json:"buttons"`
}

type request struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Clip       string   `json:"clip,omitempty"`
	Title      string   `json:"title,omitempty"`
	Message    string   `json:"message,omitempty"`
	Buttons    []string `json:"buttons,omitempty"`
	Permission string   `json:"permission,omitempty"`
}

type reply struct {
	ID      string `json:"id"`
	Choice  int    `json:"choice,omitempty"`
	Granted bool   `json:"granted,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Bridge struct {
	transport Transport
	deviceID  string

	mu      sync.Mutex
	pending map[string]chan reply
}

func NewBridge(transport Transport, deviceID string) *Bridge {
	return &Bridge{
		transport: transport,
		deviceID:  deviceID,
		pending:   make(map[string]chan reply),
	}
}

func (b *Bridge) topic(name string) string {
	return fmt.Sprintf("athan/%s/%s", b.deviceID, name)
}

// Start subscribes to the device's reply topic. Call it once before any request.
func (b *Bridge) Start() error {
	return b.transport.Subscribe(b.topic("replies"), b.onReply)
}

func (b *Bridge) onReply(topic string, payload []byte) {
	var r reply
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("malformed device reply")
		return
	}

	b.mu.Lock()
	ch, ok := b.pending[r.ID]
	delete(b.pending, r.ID)
	b.mu.Unlock()

	if !ok {
		log.Debug().Str("id", r.ID).Msg("reply for unknown or expired request")
		return
	}
	ch <- r
}

func (b *Bridge) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// call publishes req and waits for the device's answer.
func (b *Bridge) call(ctx context.Context, topic string, req request) (reply, error) {
	req.ID = uuid.NewString()
	ch := make(chan reply, 1)

	b.mu.Lock()
	b.pending[req.ID] = ch
	b.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		b.forget(req.ID)
		return reply{}, err
	}
	if err := b.transport.Publish(topic, payload); err != nil {
		b.forget(req.ID)
		return reply{}, err
	}

	select {
	case r := <-ch:
		if r.Error != "" {
			return r, fmt.Errorf("device %s: %s", b.deviceID, r.Error)
		}
		return r, nil
	case <-ctx.Done():
		b.forget(req.ID)
		return reply{}, ctx.Err()
	}
}

// Play starts the clip and returns once the device reports playback began.
func (b *Bridge) Play(ctx context.Context, clip string) error {
	_, err := b.call(ctx, b.topic("audio"), request{Type: "play", Clip: clip})
	return err
}

// Stop pauses the clip and rewinds it. It does not wait for an answer.
func (b *Bridge) Stop(_ context.Context) error {
	payload, err := json.Marshal(request{ID: uuid.NewString(), Type: "stop"})
	if err != nil {
		return err
	}
	return b.transport.Publish(b.topic("audio"), payload)
}

// Confirm shows a blocking dialog on the device. Cancelling ctx is treated as the
// dialog being closed without a selection.
func (b *Bridge) Confirm(ctx context.Context, p Prompt) (Choice, error) {
	r, err := b.call(ctx, b.topic("prompt"), request{
		Type:    "confirm",
		Title:   p.Title,
		Message: p.Message,
		Buttons: p.Buttons,
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ChoiceDismissed, nil
	}
	if err != nil {
		return ChoiceDismissed, err
	}
	if r.Choice == stopChoice {
		return ChoiceStopped, nil
	}
	return ChoiceDismissed, nil
}

// HasLocationPermission asks the device whether coarse location is granted.
func (b *Bridge) HasLocationPermission(ctx context.Context) (bool, error) {
	r, err := b.call(ctx, b.topic("permission"), request{
		Type:       "has_permission",
		Permission: PermissionCoarseLocation,
	})
	if err != nil {
		return false, err
	}
	return r.Granted, nil
}
