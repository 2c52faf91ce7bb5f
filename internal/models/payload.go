package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrUnknownPayload   = errors.New("unknown payload type")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Payload is the decrypted content of an artifact. The set of
// implementations is closed: TextMessage and ObjectLink.
type Payload interface {
	MessageType() MessageType
	sealed()
}

// TextMessage is a plain text secret.
type TextMessage struct {
	Text string
}

func (TextMessage) MessageType() MessageType { return MessageTypeText }
func (TextMessage) sealed()                  {}

// ObjectLink points at an encrypted object in object storage. The object
// was sealed with the vault key under Nonce.
type ObjectLink struct {
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
	Nonce     []byte `json:"nonce"`
}

func (ObjectLink) MessageType() MessageType { return MessageTypeS3Object }
func (ObjectLink) sealed()                  {}

// EncodePayload returns the plaintext bytes to encrypt for p.
func EncodePayload(p Payload) (MessageType, []byte, error) {
	switch v := p.(type) {
	case TextMessage:
		return MessageTypeText, []byte(v.Text), nil
	case ObjectLink:
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("marshal object link: %w", err)
		}
		return MessageTypeS3Object, b, nil
	default:
		return "", nil, ErrUnknownPayload
	}
}

// DecodePayload interprets decrypted plaintext according to mt.
func DecodePayload(mt MessageType, plaintext []byte) (Payload, error) {
	switch mt {
	case MessageTypeText:
		if !utf8.Valid(plaintext) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformedPayload)
		}
		return TextMessage{Text: string(plaintext)}, nil
	case MessageTypeS3Object:
		var link ObjectLink
		if err := json.Unmarshal(plaintext, &link); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if link.ObjectKey == "" {
			return nil, fmt.Errorf("%w: object key is empty", ErrMalformedPayload)
		}
		return link, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayload, mt)
	}
}
