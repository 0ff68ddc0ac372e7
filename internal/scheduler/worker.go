package scheduler

import (
	"context"
	"fmt"

	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReplyProcessor runs the AI reply pipeline for one lead.
type ReplyProcessor interface {
	RespondAndDispatch(ctx context.Context, phone string) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor ReplyProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor ReplyProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		log:       log,
	}

	mux.HandleFunc(TaskConversationAIReply, w.handleAIReply)

	return w, nil
}

func (w *Worker) handleAIReply(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAIReplyPayload(task)
	if err != nil {
		return err
	}

	return w.processor.RespondAndDispatch(ctx, payload.Phone)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
