package kafka

import (
	"encoding/json"
	"fmt"

	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"

	"github.com/IBM/sarama"
)

// Producer публикует события торга в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронный продюсер.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсер.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publishEvent сериализует событие и отправляет его в топик.
func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"type":      event.Type,
	}).Debug("Event published")

	return nil
}

// PublishOfferMade публикует событие о новом предложении скидки.
func (p *Producer) PublishOfferMade(sessionID string, offer *models.Offer, counter int) error {
	event := models.NewEvent(models.EventTypeOfferMade, sessionID, map[string]interface{}{
		"offer_id":   offer.ID.String(),
		"pct":        offer.Pct,
		"counter":    counter,
		"expires_at": offer.ExpiresAt,
	})
	return p.publishEvent(p.topics.Negotiations, *event)
}

// PublishNegotiationFinalized публикует событие о завершении торга.
func (p *Producer) PublishNegotiationFinalized(sessionID string, finalPct float64, accepted bool) error {
	event := models.NewEvent(models.EventTypeNegotiationFinalized, sessionID, map[string]interface{}{
		"final_pct": finalPct,
		"accepted":  accepted,
	})
	return p.publishEvent(p.topics.Negotiations, *event)
}

// PublishOfferAccepted публикует событие о принятом предложении.
func (p *Producer) PublishOfferAccepted(sessionID string, offer *models.Offer) error {
	event := models.NewEvent(models.EventTypeOfferAccepted, sessionID, map[string]interface{}{
		"offer_id": offer.ID.String(),
		"pct":      offer.Pct,
	})
	return p.publishEvent(p.topics.Offers, *event)
}

// PublishCodeIssued публикует событие о выпущенном коде скидки.
// Флаг unconfirmed позволяет внешнему консьюмеру сверить симулированные коды.
func (p *Producer) PublishCodeIssued(sessionID string, issued *models.IssuedCode) error {
	event := models.NewEvent(models.EventTypeCodeIssued, sessionID, map[string]interface{}{
		"code":        issued.Code,
		"pct":         issued.Pct,
		"expires_at":  issued.ExpiresAt,
		"unconfirmed": issued.Unconfirmed,
	})
	return p.publishEvent(p.topics.Codes, *event)
}

// PublishSessionExpired публикует событие о принудительном истечении сессии.
func (p *Producer) PublishSessionExpired(sessionID string) error {
	event := models.NewEvent(models.EventTypeSessionExpired, sessionID, nil)
	return p.publishEvent(p.topics.Negotiations, *event)
}
