package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var videoColumns = []string{
	"id", "title", "description", "public_id", "original_size",
	"compressed_size", "duration", "owner_id", "created_at",
}

type postgresVideoRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresVideoRepo(db *pgxpool.Pool, log logger.Logger) video.Repository {
	return &postgresVideoRepo{db: db, logger: log}
}

func scanVideo(row pgx.Row) (*video.Video, error) {
	v := &video.Video{}
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.Description,
		&v.PublicID,
		&v.OriginalSize,
		&v.CompressedSize,
		&v.Duration,
		&v.OwnerID,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *postgresVideoRepo) Create(ctx context.Context, v *video.Video) error {
	query, args, err := psql.Insert("videos").
		Columns(videoColumns...).
		Values(v.ID, v.Title, v.Description, v.PublicID, v.OriginalSize,
			v.CompressedSize, v.Duration, v.OwnerID, v.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build video insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewConflict("video", "public_id", v.PublicID)
		}
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *postgresVideoRepo) FindByPublicID(ctx context.Context, publicID string) (*video.Video, error) {
	query, args, err := psql.Select(videoColumns...).
		From("videos").
		Where(sq.Eq{"public_id": publicID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build video query: %w", err)
	}

	v, err := scanVideo(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("video", publicID)
		}
		return nil, fmt.Errorf("failed to query video: %w", err)
	}
	return v, nil
}

// DeleteByPublicID reports NotFound when no row was removed, which is how a
// losing concurrent delete learns about the winner.
func (r *postgresVideoRepo) DeleteByPublicID(ctx context.Context, publicID string) error {
	query, args, err := psql.Delete("videos").Where(sq.Eq{"public_id": publicID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build video delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("video", publicID)
	}
	return nil
}

func (r *postgresVideoRepo) List(ctx context.Context, filter video.ListFilter) ([]*video.Video, error) {
	query, args, err := buildListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build video list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*video.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating video rows: %w", err)
	}
	return videos, nil
}

func buildListQuery(filter video.ListFilter) sq.SelectBuilder {
	b := psql.Select(videoColumns...).From("videos")

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if filter.OwnerID != uuid.Nil {
		b = b.Where(sq.Eq{"owner_id": filter.OwnerID})
	}

	b = b.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
