package rabbitmq

import (
	"fmt"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

const QueueName = "class-service.roster"

// RosterBindings are the routing keys the class service mirrors locally.
var RosterBindings = []string{"student.*", "facility.*"}

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewConsumer(url string) (*Consumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	c := &Consumer{conn: conn, channel: ch}

	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	for _, key := range RosterBindings {
		if err := ch.QueueBind(q.Name, key, ExchangeName, false, nil); err != nil {
			c.Close()
			return nil, fmt.Errorf("rabbitmq queue bind %s: %w", key, err)
		}
	}

	// one unacked message at a time keeps roster updates in order
	if err := ch.Qos(1, 0, false); err != nil {
		c.Close()
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}

	return c, nil
}

func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // manual ack after the local write
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}

	log.Infof("[RabbitMQ] consuming from queue: %s", QueueName)
	return msgs, nil
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
