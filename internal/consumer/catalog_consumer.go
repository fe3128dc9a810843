package consumer

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
)

// CatalogConsumer mirrors courses (catalog service) and members (account
// service) into local read models. Capacity state on courses stays local:
// the upsert never touches current_count or version.
type CatalogConsumer struct {
	courses repository.CourseRepository
	members repository.MemberRepository
}

func NewCatalogConsumer(courses repository.CourseRepository, members repository.MemberRepository) *CatalogConsumer {
	return &CatalogConsumer{courses: courses, members: members}
}

func (cc *CatalogConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(msg)
		}
		log.Println("[CatalogConsumer] channel closed, stopping consumer")
	}()
}

func (cc *CatalogConsumer) handleMessage(msg amqp.Delivery) {
	ctx := context.Background()

	switch {
	case strings.HasPrefix(msg.RoutingKey, "course."):
		var course models.Course
		if err := json.Unmarshal(msg.Body, &course); err != nil {
			log.Printf("[CatalogConsumer] failed to unmarshal course: %v", err)
			msg.Nack(false, false)
			return
		}
		if err := cc.courses.Upsert(ctx, &course); err != nil {
			log.Printf("[CatalogConsumer] failed to upsert course %d: %v", course.ID, err)
			msg.Nack(false, true) // requeue
			return
		}
		log.Printf("[CatalogConsumer] synced course %d: %s", course.ID, course.Name)

	case strings.HasPrefix(msg.RoutingKey, "member."):
		var member models.Member
		if err := json.Unmarshal(msg.Body, &member); err != nil {
			log.Printf("[CatalogConsumer] failed to unmarshal member: %v", err)
			msg.Nack(false, false)
			return
		}
		if err := cc.members.Upsert(ctx, &member); err != nil {
			log.Printf("[CatalogConsumer] failed to upsert member %d: %v", member.ID, err)
			msg.Nack(false, true)
			return
		}
		log.Printf("[CatalogConsumer] synced member %d", member.ID)

	default:
		log.Printf("[CatalogConsumer] ignoring routing key %q", msg.RoutingKey)
	}

	msg.Ack(false)
}
