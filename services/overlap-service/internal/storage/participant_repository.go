package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/tzoverlap/libs/db"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/availability"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

var ErrNotFound = errors.New("participant not found")

// Participant is a named daily work window. Only inputs are stored; overlaps
// are always computed fresh.
type Participant struct {
	ID          string
	Name        string
	Timezone    string
	StartMinute int
	EndMinute   int
	CreatedAt   time.Time
}

func (p Participant) Window() (availability.WorkWindow, error) {
	start, err := zoned.FromMinutes(p.StartMinute)
	if err != nil {
		return availability.WorkWindow{}, err
	}
	end, err := zoned.FromMinutes(p.EndMinute)
	if err != nil {
		return availability.WorkWindow{}, err
	}
	return availability.WorkWindow{Zone: p.Timezone, Start: start, End: end}, nil
}

type ParticipantRepository struct {
	pool *db.Pool
}

func NewParticipantRepository(pool *db.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS participants (
			id uuid PRIMARY KEY,
			name text NOT NULL,
			timezone text NOT NULL,
			start_minute int NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
			end_minute int NOT NULL CHECK (end_minute >= 0 AND end_minute < 1440),
			created_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (r *ParticipantRepository) Create(ctx context.Context, p Participant) (Participant, error) {
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO participants (id, name, timezone, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.Name, p.Timezone, p.StartMinute, p.EndMinute).Scan(&p.CreatedAt)
	if err != nil {
		return Participant{}, err
	}
	return p, nil
}

func (r *ParticipantRepository) Get(ctx context.Context, id string) (Participant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Participant{}, ErrNotFound
	}
	var p Participant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone, start_minute, end_minute, created_at
		FROM participants
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Timezone, &p.StartMinute, &p.EndMinute, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	return p, err
}

func (r *ParticipantRepository) List(ctx context.Context, limit int) ([]Participant, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, timezone, start_minute, end_minute, created_at
		FROM participants
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Timezone, &p.StartMinute, &p.EndMinute, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
