package model

import (
	"github.com/google/uuid"

	"github.com/mogudian/elasticsearch-orm/internal/common"
)

// Message is one entry of an error result.
type Message struct {
	Code          string `json:"code,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	MessageType   string `json:"messageType,omitempty"`
	Text          string `json:"text,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// ErrorResult is the body of every failed request.
type ErrorResult struct {
	Messages []Message `json:"messages"`
}

// NewErrorResult wraps err in an error body with a fresh correlation id.
func NewErrorResult(err error, code string) ErrorResult {
	return ErrorResult{Messages: []Message{NewMessage(err, code)}}
}

// NewMessage builds an error message with a fresh correlation id.
func NewMessage(err error, code string) Message {
	return Message{
		Code:          code,
		CorrelationID: uuid.NewString(),
		MessageType:   "Error",
		Text:          err.Error(),
		Timestamp:     common.GetCurrentTimestamp(),
	}
}
