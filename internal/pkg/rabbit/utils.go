package rabbit

import "github.com/streadway/amqp"

// Declare declares durable queue
func Declare(ch *amqp.Channel, qName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		qName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// NewChannel declares queue and starts consuming it with manual ack
func NewChannel(provider *ChannelProvider, qName string) (<-chan amqp.Delivery, error) {
	ch, err := provider.Channel()
	if err != nil {
		return nil, err
	}
	_, err = Declare(ch, qName)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		qName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
}
