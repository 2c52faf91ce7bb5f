package models

import (
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
)

// MessageType tells the client how to interpret a decrypted artifact.
type MessageType string

const (
	MessageTypeText     MessageType = "TEXT_MESSAGE"
	MessageTypeS3Object MessageType = "S3_OBJECT_LINK"
)

// ParseMessageType accepts only the known wire values.
func ParseMessageType(s string) (MessageType, error) {
	switch mt := MessageType(s); mt {
	case MessageTypeText, MessageTypeS3Object:
		return mt, nil
	default:
		return "", fmt.Errorf("%w: unknown message type %q", common.ErrorValidation, s)
	}
}

func (t MessageType) String() string { return string(t) }
