package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const adminTimeout = 30 * time.Second

// TopicSpecs 는 토픽마다 기본/재시도/DLQ 토픽 명세를 만든다.
// 재시도 토픽은 기본 토픽과 같은 파티션 수를, DLQ 는 1개를 쓴다.
func TopicSpecs(topics []Topic, partitions int) []kafka.TopicSpecification {
	if partitions <= 0 {
		partitions = 1
	}
	specs := make([]kafka.TopicSpecification, 0, len(topics)*(len(RetryDelays)+2))
	for _, t := range topics {
		specs = append(specs, kafka.TopicSpecification{Topic: t.Base(), NumPartitions: partitions, ReplicationFactor: 1})
		for _, name := range t.GetRetryTopics() {
			specs = append(specs, kafka.TopicSpecification{Topic: name, NumPartitions: partitions, ReplicationFactor: 1})
		}
		specs = append(specs, kafka.TopicSpecification{Topic: t.DLQ(), NumPartitions: 1, ReplicationFactor: 1})
	}
	return specs
}

// EnsureAllTopics 는 AllTopics 의 토픽 묶음을 한 번의 CreateTopics 요청으로 만든다.
// 이미 있는 토픽은 성공으로 본다.
func EnsureAllTopics(brokers string, partitions int) error {
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()
	return ensureTopics(ctx, brokers, TopicSpecs(AllTopics, partitions))
}

func ensureTopics(ctx context.Context, brokers string, specs []kafka.TopicSpecification) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("kafka admin client: %w", err)
	}
	defer admin.Close()

	results, err := admin.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(adminTimeout))
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	var failed []string
	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			failed = append(failed, fmt.Sprintf("%s(%v)", r.Topic, r.Error))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("create topics failed: %v", failed)
	}
	return nil
}
