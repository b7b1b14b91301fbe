package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"chatline/logger"
)

// KafkaEventBus는 confluent-kafka-go 기반 EventBus 구현체입니다.
// 모든 API 인스턴스가 같은 이벤트를 받아야 하면 InstanceGroupID 로 구독합니다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
	// OffsetReset 은 새 컨슈머 그룹의 시작 위치이다. 기본 "earliest".
	OffsetReset string
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Producer 생성 실패: %w", err)
	}

	// 전달 보고서 중 Produce 에 채널을 넘기지 않은 메시지와 클라이언트 오류를 기록한다.
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.Log().Errorf("메시지 전달 실패 %v: %v", ev.TopicPartition, ev.TopicPartition.Error)
				}
			case kafka.Error:
				logger.Log().Errorf("Kafka 오류: %v", ev)
			}
		}
	}()

	return &KafkaEventBus{Producer: p, Brokers: brokers, OffsetReset: "earliest"}, nil
}

// WithOffsetReset 은 같은 Producer 를 공유하면서 구독 시작 위치만 다른 사본을 반환한다.
// 실시간 릴레이처럼 과거 이벤트가 필요 없는 구독은 "latest" 를 사용한다. Close 는 원본에서만 호출한다.
func (k *KafkaEventBus) WithOffsetReset(reset string) *KafkaEventBus {
	cp := *k
	cp.OffsetReset = reset
	return &cp
}

func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		logger.Log().Warnf("플러시 후에도 %d개의 메시지가 남아 있습니다.", remaining)
	}
	k.Producer.Close()
	logger.Log().Info("Kafka Producer 종료.")
}

// Publish는 전달 보고서를 받을 때까지 기다립니다.
func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("이벤트 마샬링 실패: %w", err)
	}

	// ctx 가 먼저 끝나도 늦게 도착한 보고서가 막히지 않도록 버퍼 1 로 두고 닫지 않는다.
	deliveryChan := make(chan kafka.Event, 1)
	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("메시지 발행 실패: %w", err)
	}

	select {
	case ev := <-deliveryChan:
		if m, ok := ev.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			return fmt.Errorf("메시지 전달 실패: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *KafkaEventBus) newConsumer(groupID string, topics []string) (*kafka.Consumer, error) {
	reset := k.OffsetReset
	if reset == "" {
		reset = "earliest"
	}
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             reset,
		"enable.auto.commit":            false,
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Consumer 생성 실패: %w", err)
	}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("토픽 구독 실패 %v: %w", topics, err)
	}
	logger.InfoWithFields("kafka consumer started", logger.Fields{
		"group_id": groupID,
		"topics":   strings.Join(topics, ","),
	})
	return c, nil
}

// readMessage 는 타임아웃을 (nil, nil) 로 돌려준다. 치명적 오류만 error 로 반환한다.
func readMessage(c *kafka.Consumer) (*kafka.Message, error) {
	msg, err := c.ReadMessage(100 * time.Millisecond)
	if err == nil {
		return msg, nil
	}
	if kerr, ok := err.(kafka.Error); ok {
		if kerr.Code() == kafka.ErrTimedOut {
			return nil, nil
		}
		if kerr.IsFatal() {
			return nil, err
		}
	}
	logger.Log().Errorf("Kafka ReadMessage 오류: %v", err)
	time.Sleep(500 * time.Millisecond)
	return nil, nil
}

func decodeMessage(c *kafka.Consumer, msg *kafka.Message) (Event, bool) {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		logger.Log().Errorf("토픽 %s의 이벤트 페이로드 오류: %v. 메시지를 건너뛰고 커밋합니다.", *msg.TopicPartition.Topic, err)
		_, _ = c.CommitMessage(msg)
		return Event{}, false
	}
	return evt, true
}

func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID, []string{topic.Base()})
	if err != nil {
		return err
	}
	defer c.Close()

	for ctx.Err() == nil {
		msg, err := readMessage(c)
		if err != nil {
			return fmt.Errorf("컨슈머 치명적 오류: %w", err)
		}
		if msg == nil {
			continue
		}
		evt, ok := decodeMessage(c, msg)
		if !ok {
			continue
		}

		if evt.Retry > 0 {
			logger.Log().Infof("이벤트 %s 처리 시작 (재시도 %d/%d)", evt.ID, evt.Retry, evt.MaxRetry)
		}
		if herr := handler(ctx, evt); herr != nil {
			route := routeFailure(topic, evt, herr)
			if route.Dead {
				logger.Log().Errorf("이벤트 %s 최대 재시도 초과. DLQ %s로 전송. 최종 오류: %v", evt.ID, route.Topic, herr)
			} else {
				logger.Log().Warnf("이벤트 %s 처리 실패. 재시도 %d/%d를 토픽 %s에 예약.", evt.ID, route.Event.Retry, route.Event.MaxRetry, route.Topic)
			}
			if perr := k.Publish(ctx, route.Topic, route.Event); perr != nil {
				// 커밋하지 않으면 같은 메시지를 다시 받는다.
				logger.Log().Errorf("%v: %s: %v", ErrRetryScheduleFailed, route.Topic, perr)
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			logger.Log().Errorf("오프셋 커밋 오류: %v", err)
		}
	}
	logger.Log().Info("메인 컨슈머 종료 중.")
	return ctx.Err()
}

func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID, topic.GetRetryTopics())
	if err != nil {
		return err
	}
	defer c.Close()

	for ctx.Err() == nil {
		msg, err := readMessage(c)
		if err != nil {
			return fmt.Errorf("재시도 재주입 컨슈머 치명적 오류: %w", err)
		}
		if msg == nil {
			continue
		}

		topicName := *msg.TopicPartition.Topic
		delay, ok := ParseRetryFromTopicName(topicName)
		if !ok {
			logger.Log().Errorf("재시도 토픽 이름 파싱 실패: %s. 메시지를 건너뛰고 커밋합니다.", topicName)
			_, _ = c.CommitMessage(msg)
			continue
		}

		if wait := time.Until(msg.Timestamp.Add(delay)); wait > 0 {
			// 아직 이르면 오프셋을 되돌려 다시 읽는다. 컨슈머 스레드는 짧게만 멈춘다.
			if wait > 500*time.Millisecond {
				wait = 500 * time.Millisecond
			}
			time.Sleep(wait)
			if err := c.Seek(msg.TopicPartition, 0); err != nil {
				logger.Log().Errorf("재시도 오프셋 되감기 실패: %v", err)
			}
			continue
		}

		evt, ok := decodeMessage(c, msg)
		if !ok {
			continue
		}
		logger.Log().Infof("이벤트 %s를 %s에서 %s로 재주입. (재시도: %d)", evt.ID, topicName, topic.Base(), evt.Retry)
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			logger.Log().Errorf("이벤트 %s 재주입 실패: %v. 오프셋 커밋 안함.", evt.ID, err)
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			logger.Log().Errorf("재주입 후 커밋 오류: %v", err)
		}
	}
	logger.Log().Info("재시도 재주입 컨슈머 종료 중.")
	return ctx.Err()
}
