package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
)

// Transport is the subset of Client the bridge needs.
type Transport interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler MessageHandler) error
}

// Ack is published to <prefix>/ack/<id> for every decoded command.
type Ack struct {
	Response device.Response `json:"response"`
	Outcome  device.Outcome  `json:"outcome"`
	Clamped  bool            `json:"clamped,omitempty"`
	Seq      uint64          `json:"seq,omitempty"`
}

type catalogMessage struct {
	Controls []device.Descriptor `json:"controls"`
}

// Bridge maps MQTT commands onto a provider and publishes the results.
// It never opens a stream, so it does not compete with the HTTP or MCP
// subscriber for the single active stream.
type Bridge struct {
	transport Transport
	provider  device.Provider
	validator *schema.Validator
	topics    Topics
	logger    zerolog.Logger
}

// NewBridge creates a bridge publishing under topics.
func NewBridge(transport Transport, provider device.Provider, validator *schema.Validator, topics Topics) *Bridge {
	return &Bridge{
		transport: transport,
		provider:  provider,
		validator: validator,
		topics:    topics,
		logger:    log.With().Str("component", "mqtt-bridge").Str("prefix", topics.Prefix).Logger(),
	}
}

// Start publishes the catalog and subscribes to commands.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.PublishCatalog(ctx); err != nil {
		return err
	}
	if err := b.transport.Subscribe(b.topics.CommandWildcard(), b.HandleCommand); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	b.logger.Info().Str("topic", b.topics.CommandWildcard()).Msg("Bridge listening for commands")
	return nil
}

// PublishCatalog publishes the retained catalog followed by each control's current state.
func (b *Bridge) PublishCatalog(ctx context.Context) error {
	descs := b.provider.ListAll(ctx)
	payload, err := json.Marshal(catalogMessage{Controls: descs})
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := b.transport.Publish(b.topics.Catalog(), payload, true); err != nil {
		return fmt.Errorf("publish catalog: %w", err)
	}

	for _, d := range descs {
		st, err := b.provider.State(ctx, d.ID)
		if err != nil {
			continue
		}
		if err := b.publishState(st); err != nil {
			return err
		}
	}
	return nil
}

// HandleCommand decodes one command message and performs it.
// Malformed bodies are rejected without an ack.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	id, err := b.topics.CommandDevice(topic)
	if err != nil {
		return err
	}

	action, err := b.decode(payload)
	if err != nil {
		return fmt.Errorf("command for %s: %w", id, err)
	}

	var resp device.Response
	res := b.provider.Perform(context.Background(), id, action, func(r device.Response) { resp = r })

	if res.State != nil {
		if err := b.publishState(*res.State); err != nil {
			return err
		}
	}

	ack := Ack{
		Response: resp,
		Outcome:  res.Outcome,
		Clamped:  res.Clamped,
	}
	if res.State != nil {
		ack.Seq = res.State.Seq
	}
	body, err := json.Marshal(ack)
	if err != nil {
		return fmt.Errorf("encode ack: %w", err)
	}
	if err := b.transport.Publish(b.topics.Ack(id), body, false); err != nil {
		return fmt.Errorf("publish ack: %w", err)
	}

	b.logger.Debug().Str("device", id).Str("outcome", string(res.Outcome)).Msg("Command handled")
	return nil
}

func (b *Bridge) decode(payload []byte) (device.Action, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return device.Action{}, fmt.Errorf("%w: %w", device.ErrValidation, err)
	}
	if b.validator != nil {
		if err := b.validator.ValidateEnvelope(raw); err != nil {
			return device.Action{}, err
		}
	}

	var action device.Action
	if err := json.Unmarshal(payload, &action); err != nil {
		return device.Action{}, err
	}
	return action, nil
}

func (b *Bridge) publishState(st device.ControlState) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := b.transport.Publish(b.topics.State(st.DeviceID), body, true); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}
