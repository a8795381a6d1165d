package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/tzoverlap/libs/httpx"
	"github.com/md-rashed-zaman/tzoverlap/libs/kafkax"
	otelx "github.com/md-rashed-zaman/tzoverlap/libs/otel"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"github.com/segmentio/kafka-go"
)

const (
	RequestedTopic = "overlap.evaluate.requested.v1"
	EvaluatedTopic = "overlap.evaluated.v1"
	EvaluatedType  = "overlap.evaluated.v1"
)

// PublishTopic returns the configured result topic, or EvaluatedTopic.
func PublishTopic(configured string) string {
	if t := strings.TrimSpace(configured); t != "" {
		return t
	}
	return EvaluatedTopic
}

// Publisher is satisfied by *kafka.Writer.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type evaluationRequested struct {
	evaluator.Request
	otelx.TraceContext
	RequestID string `json:"request_id"`
}

type evaluationResult struct {
	RequestID string      `json:"request_id"`
	View      render.View `json:"view"`
}

type Evaluations struct {
	svc       *evaluator.Service
	publisher Publisher
	logger    *slog.Logger
}

// NewEvaluations returns the handler for evaluation requests. A nil publisher
// evaluates and logs without emitting results.
func NewEvaluations(svc *evaluator.Service, publisher Publisher, logger *slog.Logger) *Evaluations {
	return &Evaluations{svc: svc, publisher: publisher, logger: logger}
}

func (e *Evaluations) Handle(ctx context.Context, msg kafka.Message) error {
	var payload evaluationRequested
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		e.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if payload.RequestID == "" {
		payload.RequestID = string(msg.Key)
	}
	ctx = httpx.ContextWithRequestID(ctx, payload.RequestID)
	// Producers without header support put the trace context in the body.
	if kafkax.HeaderValue(msg.Headers, "traceparent") == "" {
		ctx = otelx.ContextWithTraceContext(ctx, payload.TraceContext)
	}

	view, err := e.svc.Evaluate(ctx, payload.Request)
	if err != nil {
		if evaluator.IsInputError(err) {
			// Deterministic, so not retried.
			e.logger.Warn("evaluation request rejected", "err", err, "request_id", payload.RequestID)
			return nil
		}
		return err
	}

	if e.publisher == nil {
		e.logger.Info("evaluation completed", "request_id", payload.RequestID, "has_overlap", view.HasOverlap)
		return nil
	}
	body, err := json.Marshal(evaluationResult{RequestID: payload.RequestID, View: view})
	if err != nil {
		return err
	}
	return e.publisher.WriteMessages(ctx, kafkax.NewEvent(ctx, EvaluatedType, payload.RequestID, body))
}
