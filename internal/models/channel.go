package models

// AdminChannel is the shared channel every connected admin joins.
const AdminChannel = "admins"

// NotificationEvent is the event type carrying a Notification payload.
const NotificationEvent = "notification"

// ClientChannel returns the channel scoped to a single client.
func ClientChannel(clientID string) string {
	return "user_" + clientID
}

// ChannelFor returns the channel a principal joins for the given role.
func ChannelFor(principalID string, role Role) string {
	if role == RoleAdmin {
		return AdminChannel
	}

	return ClientChannel(principalID)
}
