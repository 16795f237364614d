package securityevents

import (
	"context"
	"encoding/json"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/user"
	"resetme/internal/rabbitmq"

	"github.com/rabbitmq/amqp091-go"
)

const RoutingKeyPasswordChanged = "password.changed"

// RabbitMQ broadcasts account security events for downstream consumers
// such as session revokers and notification senders.
type RabbitMQ struct {
	log      logging.Logger
	channel  *rabbitmq.Channel
	exchange string
}

func NewRabbitMQ(log logging.Logger, channel *rabbitmq.Channel, exchange string) *RabbitMQ {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	return &RabbitMQ{log: log, channel: channel, exchange: exchange}
}

type passwordChangedMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	At     string `json:"at"`
}

func (p *RabbitMQ) PublishPasswordChanged(ctx context.Context, event user.PasswordChangedEvent) error {
	body, err := json.Marshal(passwordChangedMessage{
		UserID: int64(event.UserID),
		Email:  string(event.Email),
		At:     event.At.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKeyPasswordChanged, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		logging.Error(ctx, p.log, err)
		return err
	}
	p.log.Info(
		ctx,
		"AMQP message has been successfully published.",
		logging.Entry("exchange", p.exchange),
		logging.Entry("RK", RoutingKeyPasswordChanged),
		logging.Entry("userID", event.UserID),
	)
	return nil
}
