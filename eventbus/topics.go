package eventbus

// 기능별 기본 토픽.
var (
	// TopicChatEvents 는 chat.turn_completed 등 대화 처리 결과를 전달한다.
	TopicChatEvents = NewTopic("chatline.chat.events")
	// TopicNotificationEvents 는 notification.created 를 전달한다.
	TopicNotificationEvents = NewTopic("chatline.notification.events")
)

var AllTopics = []Topic{
	TopicChatEvents,
	TopicNotificationEvents,
}
