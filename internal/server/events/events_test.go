package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchangeErr error
	queueErr    error
	bindErr     error
	publishErr  error

	declared  []string
	bound     [][3]string
	published []amqp.Publishing
	keys      []string
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, "exchange:"+name+":"+kind)
	return f.exchangeErr
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, "queue:"+name)
	return amqp.Queue{Name: name}, f.queueErr
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bound = append(f.bound, [3]string{name, key, exchange})
	return f.bindErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewPublisher_DeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "bookkeeper", "audit")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, []string{"exchange:bookkeeper:direct", "queue:audit"}, ch.declared)
	assert.Equal(t, [][3]string{{"audit", "audit", "bookkeeper"}}, ch.bound)
}

func TestNewPublisher_SetupErrors(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]*fakeChannel{
		"exchange": {exchangeErr: boom},
		"queue":    {queueErr: boom},
		"bind":     {bindErr: boom},
	}
	for name, ch := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := newPublisher(ch, "x", "q")
			require.ErrorIs(t, err, boom)
			assert.Nil(t, p)
			assert.True(t, ch.closed)
		})
	}
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "bookkeeper", "audit")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := Event{
		Type:       AccountErased,
		OwnerID:    7,
		OccurredAt: at,
		Counts:     map[string]int64{"movements": 3},
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "bookkeeper/audit", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, AccountErased, msg.Type)
	assert.Equal(t, at, msg.Timestamp)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, ev, got)
}

func TestPublish_Error(t *testing.T) {
	boom := errors.New("channel closed")
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "bookkeeper", "audit")
	require.NoError(t, err)
	ch.publishErr = boom

	err = p.Publish(context.Background(), Event{Type: AccountImported})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publish account.imported")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "bookkeeper", "audit")
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
