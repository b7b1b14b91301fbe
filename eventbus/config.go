package eventbus

import (
	"errors"
	"os"
	"strings"
)

// GetBrokers returns Kafka bootstrap servers from env KAFKA_BOOTSTRAP_SERVERS
func GetBrokers() (string, error) {
	v := strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS"))
	if v == "" {
		return "", errors.New("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
	}
	return v, nil
}

// GetGroupID returns consumer group id from env KAFKA_GROUP_ID, or fallback.
func GetGroupID(fallback string) string {
	if v := strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID")); v != "" {
		return v
	}
	return fallback
}

// InstanceGroupID 는 인스턴스마다 고유한 컨슈머 그룹 ID 를 만든다.
// 실시간 릴레이처럼 모든 인스턴스가 같은 이벤트를 받아야 하는 구독에 사용한다.
func InstanceGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return base + "." + host
}
