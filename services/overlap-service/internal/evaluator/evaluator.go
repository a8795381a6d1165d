package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/libs/httpx"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/availability"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrMissingInput = errors.New("please fill in all fields")

// Request carries the six raw form fields.
type Request struct {
	TZ1    string `json:"tz1"`
	Start1 string `json:"start1"`
	End1   string `json:"end1"`
	TZ2    string `json:"tz2"`
	Start2 string `json:"start2"`
	End2   string `json:"end2"`
}

func (r Request) normalized() Request {
	return Request{
		TZ1:    strings.TrimSpace(r.TZ1),
		Start1: strings.TrimSpace(r.Start1),
		End1:   strings.TrimSpace(r.End1),
		TZ2:    strings.TrimSpace(r.TZ2),
		Start2: strings.TrimSpace(r.Start2),
		End2:   strings.TrimSpace(r.End2),
	}
}

// Windows validates the request and builds both work windows. Missing fields
// yield ErrMissingInput; malformed times yield zoned.ErrInvalidWallClock.
func (r Request) Windows() (availability.WorkWindow, availability.WorkWindow, error) {
	r = r.normalized()
	if r.TZ1 == "" || r.Start1 == "" || r.End1 == "" || r.TZ2 == "" || r.Start2 == "" || r.End2 == "" {
		return availability.WorkWindow{}, availability.WorkWindow{}, ErrMissingInput
	}
	w1, err := parseWindow(r.TZ1, r.Start1, r.End1)
	if err != nil {
		return availability.WorkWindow{}, availability.WorkWindow{}, fmt.Errorf("person 1: %w", err)
	}
	w2, err := parseWindow(r.TZ2, r.Start2, r.End2)
	if err != nil {
		return availability.WorkWindow{}, availability.WorkWindow{}, fmt.Errorf("person 2: %w", err)
	}
	return w1, w2, nil
}

func parseWindow(zone, start, end string) (availability.WorkWindow, error) {
	s, err := zoned.ParseWallClock(start)
	if err != nil {
		return availability.WorkWindow{}, err
	}
	e, err := zoned.ParseWallClock(end)
	if err != nil {
		return availability.WorkWindow{}, err
	}
	return availability.WorkWindow{Zone: zone, Start: s, End: e}, nil
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingInput) || errors.Is(err, zoned.ErrInvalidWallClock) || errors.Is(err, zoned.ErrInvalidZone)
}

// Service runs the resolve, intersect, enumerate and render pipeline.
type Service struct {
	oracle *zoned.SystemOracle
	engine *availability.Engine
	logger *slog.Logger
}

func NewService(oracle *zoned.SystemOracle, logger *slog.Logger) *Service {
	return &Service{
		oracle: oracle,
		engine: availability.NewEngine(zoned.NewResolver(oracle)),
		logger: logger,
	}
}

// Oracle exposes the zone database the service resolves against.
func (s *Service) Oracle() *zoned.SystemOracle {
	return s.oracle
}

func (s *Service) Evaluate(ctx context.Context, req Request) (render.View, error) {
	w1, w2, err := req.Windows()
	if err != nil {
		return render.View{}, err
	}
	return s.EvaluateWindows(ctx, w1, w2)
}

func (s *Service) EvaluateWindows(ctx context.Context, w1, w2 availability.WorkWindow) (render.View, error) {
	_, span := otel.Tracer("overlap").Start(ctx, "overlap.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("overlap.zone1", w1.Zone),
		attribute.String("overlap.zone2", w2.Zone),
	)

	started := time.Now()
	ev, err := s.engine.Evaluate(w1, w2)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return render.View{}, err
	}
	view, err := render.Render(s.oracle, ev, w1.Zone, w2.Zone)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return render.View{}, err
	}
	span.SetAttributes(
		attribute.Bool("overlap.found", ev.HasOverlap),
		attribute.Int("overlap.slots30", len(ev.Slots30)),
		attribute.Int("overlap.slots60", len(ev.Slots60)),
	)

	if s.logger != nil {
		s.logger.Debug("overlap evaluated",
			"request_id", httpx.RequestIDFromContext(ctx),
			"zone1", w1.Zone,
			"zone2", w2.Zone,
			"has_overlap", ev.HasOverlap,
			"slots30", len(ev.Slots30),
			"slots60", len(ev.Slots60),
			"duration_us", time.Since(started).Microseconds(),
		)
	}
	return view, nil
}
