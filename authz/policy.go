package authz

// DefaultPolicy 는 세션 소유권과 관리자 역할을 판단한다.
// 세션은 단일 소유자 모델이며 조직 역할은 관여하지 않는다.
const DefaultPolicy = `
package chatline.authz

default allow = false

session_actions = {"session.read", "session.write"}

admin_actions = {"admin.access", "notification.send", "credits.grant"}

allow {
	session_actions[input.action]
	input.caller.id != ""
	input.resource.owner_id == input.caller.id
}

allow {
	admin_actions[input.action]
	input.caller.role == "admin"
}
`
