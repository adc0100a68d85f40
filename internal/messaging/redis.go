package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"joystick-service/internal/hardware"
	"joystick-service/internal/logger"
	"joystick-service/internal/types"
)

// Callbacks are invoked from the listener goroutines when commands arrive.
type Callbacks struct {
	DisplayModeCallback  func(string) error // "direction", "coordinates", "off"
	StateCallback        func(string) error // "run", "pause", "stop"
	PollIntervalCallback func(int) error    // interval in milliseconds
	SettingsCallback     func(string) error // settings key that was updated
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(host string, port int, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// StartListening starts the pub/sub and command-list listeners. Call after
// system initialization is complete.
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, "settings")
	r.wg.Add(1)
	go r.redisListener(pubsub)

	r.wg.Add(3)
	go r.listCommandListener("joystick:display", r.handleDisplayCommand)
	go r.listCommandListener("joystick:state", r.handleStateCommand)
	go r.listCommandListener("joystick:poll", r.handlePollCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			// BRPOP with a short timeout so context cancellation is
			// observed periodically.
			result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if err == context.Canceled {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handleDisplayCommand(value string) error {
	if r.callbacks.DisplayModeCallback == nil {
		return nil
	}
	switch value {
	case "direction", "coordinates", "off":
		return r.callbacks.DisplayModeCallback(value)
	default:
		return fmt.Errorf("invalid display command: %s", value)
	}
}

func (r *RedisClient) handleStateCommand(value string) error {
	if r.callbacks.StateCallback == nil {
		return nil
	}
	switch value {
	case "run", "pause", "stop":
		return r.callbacks.StateCallback(value)
	default:
		return fmt.Errorf("invalid state command: %s", value)
	}
}

func (r *RedisClient) handlePollCommand(value string) error {
	if r.callbacks.PollIntervalCallback == nil {
		return nil
	}
	var intervalMs int
	if _, err := fmt.Sscanf(value, "%d", &intervalMs); err != nil {
		return fmt.Errorf("invalid poll interval %q, expected integer milliseconds: %w", value, err)
	}
	if intervalMs <= 0 {
		return fmt.Errorf("invalid poll interval %d, must be positive", intervalMs)
	}
	return r.callbacks.PollIntervalCallback(intervalMs)
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok {
				r.logger.Fatalf("Redis connection lost, exiting to allow systemd restart")
			}
			if msg == nil {
				continue
			}

			r.logger.Debugf("Received Redis message: channel=%s payload=%s", msg.Channel, msg.Payload)

			if msg.Channel == "settings" && r.callbacks.SettingsCallback != nil {
				if err := r.callbacks.SettingsCallback(msg.Payload); err != nil {
					r.logger.Warnf("Failed to handle settings update: %v", err)
				}
			}
		}
	}
}

// publishHashSet atomically updates a hash field and publishes a
// notification naming the field that changed.
func (r *RedisClient) publishHashSet(hash, field string, value interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, field, value)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

// PublishDirection writes the classified direction label and its timestamp
// to the joystick hash and notifies subscribers.
func (r *RedisClient) PublishDirection(label string) error {
	r.logger.Debugf("Publishing direction: %s", label)
	timestamp := time.Now().Format(time.RFC3339)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, "joystick", "direction", label)
	pipe.HSet(r.ctx, "joystick", "direction:timestamp", timestamp)
	pipe.Publish(r.ctx, "joystick", "direction")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish direction: %v", err)
		return err
	}
	return nil
}

// positionFields expands a raw axis pair into the hash fields published
// for one sample: the raw values plus the percent deflection of each axis.
func positionFields(x, y uint8) map[string]interface{} {
	return map[string]interface{}{
		"x":     int(x),
		"y":     int(y),
		"x:pct": int(hardware.ToPercent(x)),
		"y:pct": int(hardware.ToPercent(y)),
	}
}

// PublishPosition writes the axis values to the joystick hash and notifies
// subscribers.
func (r *RedisClient) PublishPosition(x, y uint8) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, "joystick", positionFields(x, y))
	pipe.Publish(r.ctx, "joystick", "position")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish position: %v", err)
		return err
	}
	return nil
}

// PublishButtonEvent writes the stick push button state to the joystick
// hash and notifies subscribers.
func (r *RedisClient) PublishButtonEvent(pressed bool) error {
	value := "released"
	if pressed {
		value = "pressed"
	}
	r.logger.Debugf("Publishing button event: %s", value)
	if err := r.publishHashSet("joystick", "button", value, "joystick", "button"); err != nil {
		r.logger.Warnf("Failed to publish button event: %v", err)
		return err
	}
	return nil
}

// PublishServiceState writes the service run state to the joystick hash.
func (r *RedisClient) PublishServiceState(state types.ServiceState) error {
	r.logger.Infof("Publishing service state: %s", state)
	if err := r.publishHashSet("joystick", "state", string(state), "joystick", "state"); err != nil {
		r.logger.Warnf("Failed to publish service state: %v", err)
		return err
	}
	return nil
}

// GetServiceState reads the last published run state, for restoring the
// paused/running choice across restarts.
func (r *RedisClient) GetServiceState() (types.ServiceState, error) {
	stateStr, err := r.client.HGet(r.ctx, "joystick", "state").Result()
	if err == redis.Nil {
		return types.StateInit, nil
	}
	if err != nil {
		return types.StateInit, err
	}
	return types.ServiceState(stateStr), nil
}

// GetHashField reads a field from a Redis hash using HGET. A missing field
// reads as the empty string.
func (r *RedisClient) GetHashField(hash, field string) (string, error) {
	value, err := r.client.HGet(r.ctx, hash, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get hash field %s from %s: %w", field, hash, err)
	}
	return value, nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
