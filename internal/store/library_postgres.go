package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/podpulse/internal/library"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// LibraryPostgresStore is a PostgreSQL implementation of library.Repository.
type LibraryPostgresStore struct {
	pool *pgxpool.Pool
}

func NewLibraryPostgresStore(pool *pgxpool.Pool) *LibraryPostgresStore {
	return &LibraryPostgresStore{pool: pool}
}

func (s *LibraryPostgresStore) SaveBookmark(ctx context.Context, b *library.Bookmark) error {
	query := psql.
		Insert("bookmarks").
		Columns("id", "user_id", "podcast_id", "title", "description", "image", "created_at").
		Values(b.ID, b.UserID, b.PodcastID, b.Title, b.Description, b.Image, b.CreatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image = EXCLUDED.image`)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, sql, args...)

	return err
}

func (s *LibraryPostgresStore) DeleteBookmark(ctx context.Context, id string) error {
	sql, args, err := psql.Delete("bookmarks").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, sql, args...)

	return err
}

func (s *LibraryPostgresStore) BookmarksByUser(ctx context.Context, userID string) ([]library.Bookmark, error) {
	sql, args, err := psql.
		Select("id", "user_id", "podcast_id", "title", "description", "image", "created_at").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]library.Bookmark, 0)

	for rows.Next() {
		var b library.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.PodcastID, &b.Title, &b.Description, &b.Image, &b.CreatedAt); err != nil {
			return nil, err
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

func (s *LibraryPostgresStore) UpsertReview(ctx context.Context, r *library.Review) (*library.Review, error) {
	sql, args, err := psql.
		Insert("reviews").
		Columns("id", "user_id", "podcast_id", "rating", "comment", "created_at", "updated_at").
		Values(r.ID, r.UserID, r.PodcastID, r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = EXCLUDED.updated_at
			RETURNING ` + reviewColumns).
		ToSql()
	if err != nil {
		return nil, err
	}

	return scanReview(s.pool.QueryRow(ctx, sql, args...))
}

func (s *LibraryPostgresStore) ReviewsByPodcast(ctx context.Context, podcastID string) ([]library.Review, error) {
	sql, args, err := psql.
		Select(reviewColumns).
		From("reviews").
		Where(squirrel.Eq{"podcast_id": podcastID}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]library.Review, 0)

	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *r)
	}

	return out, rows.Err()
}

const reviewColumns = "id, user_id, podcast_id, rating, comment, created_at, updated_at"

func scanReview(row pgx.Row) (*library.Review, error) {
	var r library.Review

	err := row.Scan(&r.ID, &r.UserID, &r.PodcastID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

var _ library.Repository = (*LibraryPostgresStore)(nil)
