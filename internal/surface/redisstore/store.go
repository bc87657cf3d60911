package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// Store keeps surface membership in a Redis set per kind and the last
// content per surface as a JSON string. Every write is also published so
// other processes can fan it out.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect builds a client for addr and verifies it with a PING.
func Connect(ctx context.Context, addr, password string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client), nil
}

func (s *Store) Name() string { return "redis" }

func membersKey(kind domain.Kind) string { return "widgets:" + string(kind) }

func contentKey(kind domain.Kind, id surface.ID) string {
	return "widget:" + string(kind) + ":" + string(id)
}

// UpdatesChannel is the pub/sub channel carrying writes for kind.
func UpdatesChannel(kind domain.Kind) string { return "widgets.updates." + string(kind) }

func (s *Store) List(ctx context.Context, kind domain.Kind) ([]surface.ID, error) {
	members, err := s.client.SMembers(ctx, membersKey(kind)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	ids := make([]surface.ID, len(members))
	for i, m := range members {
		ids[i] = surface.ID(m)
	}
	return ids, nil
}

func (s *Store) Write(ctx context.Context, kind domain.Kind, id surface.ID, content surface.Content) error {
	ok, err := s.client.SIsMember(ctx, membersKey(kind), string(id)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return surface.ErrUnknownSurface
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, contentKey(kind, id), payload, 0)
	pipe.Publish(ctx, UpdatesChannel(kind), payload)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Register(ctx context.Context, kind domain.Kind, id surface.ID) error {
	return s.client.SAdd(ctx, membersKey(kind), string(id)).Err()
}

func (s *Store) Unregister(ctx context.Context, kind domain.Kind, id surface.ID) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, membersKey(kind), string(id))
	pipe.Del(ctx, contentKey(kind, id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Read(ctx context.Context, kind domain.Kind, id surface.ID) (surface.Content, error) {
	raw, err := s.client.Get(ctx, contentKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		ok, memberErr := s.client.SIsMember(ctx, membersKey(kind), string(id)).Result()
		if memberErr != nil {
			return surface.Content{}, memberErr
		}
		if ok {
			return surface.Content{}, nil
		}
		return surface.Content{}, surface.ErrUnknownSurface
	}
	if err != nil {
		return surface.Content{}, err
	}
	var content surface.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return surface.Content{}, fmt.Errorf("decode %s: %w", contentKey(kind, id), err)
	}
	return content, nil
}

// Client exposes the connection for other Redis-backed components.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
