package test

import (
	"log"

	"github.com/myhippo/transcriber/internal/pkg/messages"
)

// Msg keeps one sent message with its queue
type Msg struct {
	M *messages.QueueMessage
	Q string
}

// Sender is a recording messages.Sender fake
type Sender struct {
	Msgs []Msg
	Err  error
}

// Send records the message
func (sender *Sender) Send(m *messages.QueueMessage, q string) error {
	log.Printf("Sending msg %s\n", m.JobID)
	if sender.Err != nil {
		return sender.Err
	}
	sender.Msgs = append(sender.Msgs, Msg{m, q})
	return nil
}

// Contains tests if the slice has the value
func Contains(s []string, v string) bool {
	for _, a := range s {
		if a == v {
			return true
		}
	}
	return false
}
