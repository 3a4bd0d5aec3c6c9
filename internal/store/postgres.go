package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/podpulse/internal/smartlink"
)

// PostgresStore is a PostgreSQL implementation of smartlink.Repository.
// Destinations and clicks live in JSONB columns of the smart_links table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed SmartLink store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, link *smartlink.SmartLink) error {
	query := `
		INSERT INTO smart_links (id, owner, destinations, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	destinations, err := json.Marshal(link.Destinations)
	if err != nil {
		return fmt.Errorf("encode destinations: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query,
		string(link.ID),
		link.Owner,
		string(destinations),
		link.CreatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return smartlink.ErrIDTaken
	}

	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id smartlink.ID) (*smartlink.SmartLink, error) {
	query := `
		SELECT id, owner, destinations, created_at
		FROM smart_links
		WHERE id = $1
	`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, smartlink.ErrNotFound
		}

		return nil, err
	}

	return link, nil
}

// AppendClick uses the native JSONB concatenation so concurrent appends never
// overwrite each other.
func (p *PostgresStore) AppendClick(ctx context.Context, id smartlink.ID, click smartlink.ClickEvent) error {
	query := `
		UPDATE smart_links
		SET clicks = clicks || jsonb_build_array($2::jsonb)
		WHERE id = $1
	`

	payload, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("encode click: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, string(id), string(payload))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return smartlink.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Clicks(ctx context.Context, id smartlink.ID) ([]smartlink.ClickEvent, error) {
	query := `SELECT clicks FROM smart_links WHERE id = $1`

	var raw []byte

	if err := p.pool.QueryRow(ctx, query, string(id)).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, smartlink.ErrNotFound
		}

		return nil, err
	}

	clicks := make([]smartlink.ClickEvent, 0)
	if err := json.Unmarshal(raw, &clicks); err != nil {
		return nil, fmt.Errorf("decode clicks: %w", err)
	}

	return clicks, nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]*smartlink.SmartLink, error) {
	query := `
		SELECT id, owner, destinations, created_at
		FROM smart_links
		WHERE owner = $1
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]*smartlink.SmartLink, 0)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

func scanLink(row pgx.Row) (*smartlink.SmartLink, error) {
	var (
		link smartlink.SmartLink
		id   string
		raw  []byte
	)

	if err := row.Scan(&id, &link.Owner, &raw, &link.CreatedAt); err != nil {
		return nil, err
	}

	link.ID = smartlink.ID(id)

	if err := json.Unmarshal(raw, &link.Destinations); err != nil {
		return nil, fmt.Errorf("decode destinations: %w", err)
	}

	return &link, nil
}

var _ smartlink.Repository = (*PostgresStore)(nil)
