package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned by NewRedisStore when the initial ping
// fails. Callers fall back to a MemoryStore rather than treating this as a
// hard failure.
var ErrRedisUnavailable = errors.New("session redis unavailable")

const pingTimeout = 5 * time.Second

type changeEnvelope struct {
	Origin  string  `json:"origin"`
	Session Session `json:"session"`
}

// RedisStore persists the session as one JSON blob and publishes a change
// notification after every write, so stores in other processes observe a
// login or logout without polling. Notifications published by this instance
// are not delivered back to its own subscribers; only changes from outside
// the current execution context fire.
type RedisStore struct {
	client  redis.UniversalClient
	key     string
	channel string
	origin  string

	mu        sync.Mutex
	listeners map[int]func(Session)
	nextID    int
	pubsub    *redis.PubSub
	done      chan struct{}
	wg        sync.WaitGroup
	closed    bool
}

// NewRedisStore verifies connectivity and returns a store keyed under
// prefix. All stores sharing a prefix observe each other's changes.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if prefix == "" {
		prefix = "portal"
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return &RedisStore{
		client:    client,
		key:       prefix + ":session",
		channel:   prefix + ":session:events",
		origin:    uuid.NewString(),
		listeners: make(map[int]func(Session)),
	}, nil
}

// Set persists the session and broadcasts the change.
func (r *RedisStore) Set(ctx context.Context, s Session) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return r.publish(ctx, s)
}

// Get returns the persisted session. A missing key is the signed-out zero
// session, not an error.
func (r *RedisStore) Get(ctx context.Context) (Session, error) {
	blob, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(blob, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Clear removes every persisted slot and broadcasts the zero session.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return r.publish(ctx, Session{})
}

// Subscribe registers fn for changes made by other store instances. The
// receive loop starts lazily on the first subscription.
func (r *RedisStore) Subscribe(fn func(Session)) (cancel func()) {
	r.mu.Lock()
	if r.pubsub == nil && !r.closed {
		r.pubsub = r.client.Subscribe(context.Background(), r.channel)
		r.done = make(chan struct{})
		r.wg.Add(1)
		go r.receive(r.pubsub)
	}
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Close stops the receive loop and releases the pub/sub connection. The
// underlying Redis client is owned by the caller and stays open.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pubsub := r.pubsub
	done := r.done
	r.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	close(done)
	err := pubsub.Close()
	r.wg.Wait()
	return err
}

func (r *RedisStore) publish(ctx context.Context, s Session) error {
	env, err := json.Marshal(changeEnvelope{Origin: r.origin, Session: s})
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, env).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

func (r *RedisStore) receive(pubsub *redis.PubSub) {
	defer r.wg.Done()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env changeEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.mu.Lock()
			fns := make([]func(Session), 0, len(r.listeners))
			for _, fn := range r.listeners {
				fns = append(fns, fn)
			}
			r.mu.Unlock()
			for _, fn := range fns {
				fn(env.Session)
			}
		case <-r.done:
			return
		}
	}
}
