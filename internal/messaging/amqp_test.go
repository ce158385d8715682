package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	hasDL    bool
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	_, f.hasDL = ctx.Deadline()
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishMessage_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "casa.events"}
	owner := uuid.New()

	event := websocket.ExpensePaid(map[string]interface{}{"id": "e-1"})
	err := p.PublishMessage(context.Background(), NewMessage(owner, event))
	require.NoError(t, err)

	assert.Equal(t, "casa.events", ch.exchange)
	assert.Equal(t, "expense.paid", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.True(t, ch.hasDL, "publish must run with a timeout")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, owner.String(), decoded["ownerId"])
	assert.Equal(t, "expense", decoded["entity"])
}

func TestPublish_SwallowsErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &Publisher{channel: ch, exchange: "casa.events"}

	assert.NotPanics(t, func() {
		p.Publish(uuid.New(), websocket.PersonDeleted(map[string]interface{}{"id": "2"}))
	})
	assert.Equal(t, "person.deleted", ch.key)
}

func TestClose_ClosesChannel(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch}

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
