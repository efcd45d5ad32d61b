package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQService publishes transcription tasks for the external ML
// worker. Publishes are fire-and-forget: a dead broker must never fail a
// record upload, so construction tolerates connection errors and leaves
// the channel nil.
type RabbitMQService struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

type transcriptionTask struct {
	RecordID int64 `json:"record_id"`
}

func NewRabbitMQService(host, port, username, password, queue string) *RabbitMQService {
	s := &RabbitMQService{queue: queue}

	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s:%s/", username, password, host, port))
	if err != nil {
		log.Println("Failed to connect to RabbitMQ:", err)
		return s
	}

	channel, err := conn.Channel()
	if err != nil {
		log.Println("Failed to open RabbitMQ channel:", err)
		conn.Close()
		return s
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Println("Failed to declare RabbitMQ queue:", err)
		channel.Close()
		conn.Close()
		return s
	}

	s.conn = conn
	s.channel = channel
	log.Printf("Connected to RabbitMQ at %s:%s, queue: %s", host, port, queue)
	return s
}

// SendTranscriptionTask enqueues {"record_id": id} on the transcription
// queue.
func (s *RabbitMQService) SendTranscriptionTask(recordID int64) error {
	if s.channel == nil {
		return errors.New("rabbitmq channel is not available")
	}

	body, err := json.Marshal(transcriptionTask{RecordID: recordID})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return err
	}

	log.Println("Sent transcription task for record ID:", recordID)
	return nil
}

func (s *RabbitMQService) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
