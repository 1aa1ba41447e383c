// Package store adapts the event sink boundary to Redis: a durable,
// cross-restart cache of each terminal's last-known location and message
// count. This is the "destinations such as databases" collaborator spec 1
// names as explicitly external to the core — decoding never touches
// Redis directly, only this adaptor does.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jtt808-svr/internal/session"
)

const lastLocationTTL = 10 * time.Minute

// RedisSink implements session.Sink, persisting decoded location events
// and counting location events per terminal. Parse errors and unhandled
// messages are not recorded.
type RedisSink struct {
	rdb *redis.Client
	ctx context.Context
	log *slog.Logger
}

// NewRedisSink dials addr/db and verifies connectivity with a Ping before
// returning, matching the teacher's fail-fast init habit.
func NewRedisSink(addr string, db int, log *slog.Logger) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("store: redis ping failed: %w", err)
	}
	return &RedisSink{rdb: rdb, ctx: ctx, log: log.With("component", "store")}, nil
}

type lastLocation struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	SpeedKmh  float64   `json:"speed_kmh"`
}

func (r *RedisSink) Location(e session.LocationEvent) {
	terminalID, snap := snapshot(e)

	key := "jtt808:last_location:" + terminalID
	b, err := json.Marshal(snap)
	if err != nil {
		r.log.Error("marshal last-location failed", "terminal_id", terminalID, "err", err)
		return
	}
	if err := r.rdb.Set(r.ctx, key, b, lastLocationTTL).Err(); err != nil {
		r.log.Error("redis SET last-location failed", "terminal_id", terminalID, "err", err)
		return
	}

	counterKey := "jtt808:msg_count:" + terminalID
	if err := r.rdb.Incr(r.ctx, counterKey).Err(); err != nil {
		r.log.Error("redis INCR message counter failed", "terminal_id", terminalID, "err", err)
	}
}

func (r *RedisSink) ParseError(session.ParseErrorEvent)         {}
func (r *RedisSink) Unhandled(session.UnhandledMessageEvent)    {}

func snapshot(e session.LocationEvent) (string, lastLocation) {
	if e.Binary != nil {
		l := e.Binary
		return l.TerminalID, lastLocation{Time: l.Time, Latitude: l.LatitudeMagnitude, Longitude: l.LongitudeMagnitude, SpeedKmh: l.SpeedKmh}
	}
	r := e.ASCII
	return r.TerminalID, lastLocation{Time: r.Time, Latitude: r.Latitude, Longitude: r.Longitude, SpeedKmh: r.SpeedKmh}
}

// MessageCount returns the durable per-terminal counter of location
// events, or 0 if unset.
func (r *RedisSink) MessageCount(terminalID string) (int64, error) {
	n, err := r.rdb.Get(r.ctx, "jtt808:msg_count:"+terminalID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
