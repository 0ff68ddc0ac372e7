// Package scheduler queues AI reply work through asynq so webhook handlers
// never wait on the responder or the WhatsApp API.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskConversationAIReply = "conversation.ai_reply"

type AIReplyPayload struct {
	Phone string `json:"phone"`
}

func NewAIReplyTask(payload AIReplyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversationAIReply, data), nil
}

func ParseAIReplyPayload(task *asynq.Task) (AIReplyPayload, error) {
	var payload AIReplyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AIReplyPayload{}, err
	}
	return payload, nil
}
