package events

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/nhupane/gopasal/pkg/messaging"
)

// UserRegisteredEvent is published after a successful registration so the
// notification consumer can deliver the verification code.
type UserRegisteredEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	OTP      string    `json:"otp"`
}

func (u UserRegisteredEvent) Subject() string {
	return messaging.UsersRegisteredSubject
}

func (u UserRegisteredEvent) Payload() ([]byte, error) {
	return json.Marshal(u)
}
