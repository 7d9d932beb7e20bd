package hub

import "github.com/google/uuid"

// AdminRoom holds every connection owned by an administrator. Joining it
// is role-gated at the gateway.
const AdminRoom = "admin"

// UserRoom returns the room name for one account's connections.
func UserRoom(userID uuid.UUID) string {
	return "user-" + userID.String()
}

// TaskRoom returns the room name for connections viewing one task.
func TaskRoom(taskID uuid.UUID) string {
	return "task-" + taskID.String()
}
