package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// MQTTSource ingests live device streams: a companion phone app publishes
// JSON accel/gyro/rotation samples and keypad presses to per-channel topics.
// Each subscription feeds a buffered channel with drop-on-full semantics so
// a stalled consumer never backs up into the MQTT client.
type MQTTSource struct {
	cfg    utils.MQTTConfig
	client mqtt.Client

	// mu orders in-flight handler sends against shutdown: handlers hold the
	// read lock while sending, shutdown closes the out channels only under
	// the write lock, after marking closed.
	mu     sync.RWMutex
	closed bool
	quit   chan struct{}

	AccelCh    chan models.AccelSample
	GyroCh     chan models.GyroSample
	RotationCh chan models.RotationSample
	KeyCh      chan models.KeyPress
}

func NewMQTTSource(cfg utils.MQTTConfig) *MQTTSource {
	return &MQTTSource{
		cfg:        cfg,
		quit:       make(chan struct{}),
		AccelCh:    make(chan models.AccelSample, 256),
		GyroCh:     make(chan models.GyroSample, 256),
		RotationCh: make(chan models.RotationSample, 256),
		KeyCh:      make(chan models.KeyPress, 16),
	}
}

// Start connects and subscribes to every configured topic. The source shuts
// down (disconnecting the client and closing the out channels) when ctx is
// cancelled.
func (s *MQTTSource) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID)

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, token.Error())
	}
	utils.L().Info("mqtt source connected to %s", s.cfg.Broker)

	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{s.cfg.TopicAccel, s.onAccel},
		{s.cfg.TopicGyro, s.onGyro},
		{s.cfg.TopicRotation, s.onRotation},
		{s.cfg.TopicKeypad, s.onKeypad},
	}
	for _, sub := range subs {
		if sub.topic == "" {
			continue
		}
		token := s.client.Subscribe(sub.topic, 0, sub.handler)
		if token.Wait(); token.Error() != nil {
			s.client.Disconnect(250)
			return fmt.Errorf("mqtt subscribe %s: %w", sub.topic, token.Error())
		}
		utils.L().Info("mqtt source subscribed to %s", sub.topic)
	}

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()
	return nil
}

// shutdown stops deliveries and closes the out channels. The quit channel is
// closed first so a keypad handler blocked on a full KeyCh unblocks and
// releases the read lock; the channel closes then proceed under the write
// lock, after which every later handler sees closed and returns without
// sending.
func (s *MQTTSource) shutdown() {
	close(s.quit)
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.mu.Lock()
	s.closed = true
	close(s.AccelCh)
	close(s.GyroCh)
	close(s.RotationCh)
	close(s.KeyCh)
	s.mu.Unlock()
	utils.L().Info("mqtt source stopped")
}

func (s *MQTTSource) onAccel(_ mqtt.Client, msg mqtt.Message) {
	var sample models.AccelSample
	if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
		utils.L().Warn("mqtt accel unmarshal: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.AccelCh <- sample:
	default:
	}
}

func (s *MQTTSource) onGyro(_ mqtt.Client, msg mqtt.Message) {
	var sample models.GyroSample
	if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
		utils.L().Warn("mqtt gyro unmarshal: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.GyroCh <- sample:
	default:
	}
}

func (s *MQTTSource) onRotation(_ mqtt.Client, msg mqtt.Message) {
	var sample models.RotationSample
	if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
		utils.L().Warn("mqtt rotation unmarshal: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.RotationCh <- sample:
	default:
	}
}

// onKeypad never drops in steady state: a lost press would desynchronize the
// partial PIN. The send blocks until the consumer drains or shutdown begins.
func (s *MQTTSource) onKeypad(_ mqtt.Client, msg mqtt.Message) {
	var kp models.KeyPress
	if err := json.Unmarshal(msg.Payload(), &kp); err != nil {
		utils.L().Warn("mqtt keypad unmarshal: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.KeyCh <- kp:
	case <-s.quit:
	}
}
