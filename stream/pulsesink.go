package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// PulseClient exposes the subset of goa.design/pulse streaming required by
// PulseSink, grounded on the teacher's features/stream/pulse/clients/pulse
// client wrapper — a thin seam that keeps the rest of this package free of
// a direct dependency on *streaming.Stream.
type PulseClient interface {
	Stream(name string, opts ...streamopts.Stream) (PulseStream, error)
	Close(ctx context.Context) error
}

// PulseStream is the subset of a Pulse stream handle PulseSink needs.
type PulseStream interface {
	Add(ctx context.Context, event string, payload []byte) (string, error)
}

// NewPulseClient builds a PulseClient backed by a live Redis connection.
func NewPulseClient(redisClient *redis.Client, maxLen int) (PulseClient, error) {
	if redisClient == nil {
		return nil, errors.New("stream: redis client is required")
	}
	return &pulseClient{redis: redisClient, maxLen: maxLen}, nil
}

type pulseClient struct {
	redis  *redis.Client
	maxLen int
}

func (c *pulseClient) Stream(name string, opts ...streamopts.Stream) (PulseStream, error) {
	if name == "" {
		return nil, errors.New("stream: stream name is required")
	}
	var streamOptions []streamopts.Stream
	if c.maxLen > 0 {
		streamOptions = append(streamOptions, streamopts.WithStreamMaxLen(c.maxLen))
	}
	streamOptions = append(streamOptions, opts...)
	str, err := streaming.NewStream(name, c.redis, streamOptions...)
	if err != nil {
		return nil, fmt.Errorf("stream: create pulse stream: %w", err)
	}
	return &pulseStreamHandle{stream: str}, nil
}

func (c *pulseClient) Close(context.Context) error { return nil }

type pulseStreamHandle struct{ stream *streaming.Stream }

func (h *pulseStreamHandle) Add(ctx context.Context, event string, payload []byte) (string, error) {
	id, err := h.stream.Add(ctx, event, payload)
	if err != nil {
		return "", fmt.Errorf("stream: pulse add: %w", err)
	}
	return id, nil
}

// PulseSinkOptions configures PulseSink.
type PulseSinkOptions struct {
	// Client is the Pulse client events are published through. Required.
	Client PulseClient
	// StreamName derives the target Pulse stream name from an envelope.
	// Defaults to "session/<SessionID>".
	StreamName func(Envelope) (string, error)
}

// PulseSink publishes envelope-tagged run events onto a goa.design/pulse
// stream (Redis Streams-backed), letting subscribers in other processes
// observe a run alongside the default in-process Broadcaster (spec §4.4
// NEW). It does not replace Broadcaster — callers typically publish to
// both: Broadcaster for in-process subscribers, PulseSink for
// cross-process fan-out.
type PulseSink struct {
	client     PulseClient
	streamName func(Envelope) (string, error)
}

// NewPulseSink constructs a PulseSink. Client is required.
func NewPulseSink(opts PulseSinkOptions) (*PulseSink, error) {
	if opts.Client == nil {
		return nil, errors.New("stream: pulse client is required")
	}
	name := opts.StreamName
	if name == nil {
		name = defaultPulseStreamName
	}
	return &PulseSink{client: opts.Client, streamName: name}, nil
}

// Send publishes env to its derived Pulse stream, wire-shaped as the
// JSON-marshaled Envelope plus a "timestamp" field.
func (s *PulseSink) Send(ctx context.Context, env Envelope) error {
	name, err := s.streamName(env)
	if err != nil {
		return err
	}
	stream, err := s.client.Stream(name)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	stamped := envelopeWithTimestamp{Envelope: env, Timestamp: time.Now().UTC()}
	payload, err = json.Marshal(stamped)
	if err != nil {
		return err
	}
	_, err = stream.Add(ctx, string(env.Mode), payload)
	return err
}

// Close releases resources owned by the sink, delegating to the client.
func (s *PulseSink) Close(ctx context.Context) error { return s.client.Close(ctx) }

type envelopeWithTimestamp struct {
	Envelope
	Timestamp time.Time `json:"timestamp"`
}

func defaultPulseStreamName(env Envelope) (string, error) {
	if env.SessionID == "" {
		return "", errors.New("stream: envelope missing session id")
	}
	return fmt.Sprintf("session/%s", env.SessionID), nil
}
