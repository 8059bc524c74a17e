// Package events publishes department and assignment changes to Kafka.
// Publishing is asynchronous: Produce never blocks the caller and drops the
// event with a warning when the queue is full.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

const queueSize = 1000

type EventType string

const (
	DepartmentCreated  EventType = "department_created"
	DepartmentUpdated  EventType = "department_updated"
	DepartmentDeleted  EventType = "department_deleted"
	EmployeesAssigned  EventType = "employees_assigned"
	EmployeeUnassigned EventType = "employee_unassigned"
)

// Event is the message body written to the topic, keyed by department ID.
type Event struct {
	Type        EventType          `json:"type"`
	Department  *models.Department `json:"department"`
	EmployeeIDs []uuid.UUID        `json:"employee_ids,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

// NewProducer makes sure the topic exists and starts the delivery loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if err := ensureTopic(brokers[0], topic, logger); err != nil {
		return nil, err
	}

	return newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// ensureTopic creates the topic through the cluster controller. An existing
// topic is not an error.
func ensureTopic(broker, topic string, logger *zap.Logger) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.String("topic", topic), zap.Error(err))
	}
	return nil
}

// Produce queues an event about department, optionally naming the employees
// it concerns.
func (p *Producer) Produce(eventType EventType, department *models.Department, employeeIDs ...uuid.UUID) {
	event := Event{
		Type:        eventType,
		Department:  department,
		EmployeeIDs: employeeIDs,
		OccurredAt:  time.Now().UTC(),
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("department_id", department.ID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			p.drain()
			return
		}
	}
}

// drain delivers whatever was queued before Close.
func (p *Producer) drain() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	departmentID := event.Department.ID.String()
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("department_id", departmentID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(departmentID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("department_id", departmentID),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
