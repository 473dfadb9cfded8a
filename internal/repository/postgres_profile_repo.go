package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/collabo/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
// インフルエンサーとブランドのプロフィールを単一のprofilesテーブルに
// kind列で区別して格納する。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, user_id, kind, location, verified, created_at,
	category, platforms, follower_count, engagement_rate, pricing, content_samples,
	company_type, industry, marketing_goals, budget`

func scanProfileRow(scan func(dest ...any) error) (*model.Profile, error) {
	p := &model.Profile{}
	err := scan(&p.ID, &p.UserID, &p.Kind, &p.Location, &p.Verified, &p.CreatedAt,
		&p.Category, pq.Array(&p.Platforms), &p.FollowerCount, &p.EngagementRate,
		&p.Pricing, pq.Array(&p.ContentSamples),
		&p.CompanyType, &p.Industry, &p.MarketingGoals, &p.Budget)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id int64) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)
	p, err := scanProfileRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return p, nil
}

// FindByOwner は所有ユーザーと種別でプロフィールを取得する。
func (r *PostgresProfileRepo) FindByOwner(ctx context.Context, userID int64, kind model.ProfileKind) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 AND kind = $2`,
		userID, kind,
	)
	p, err := scanProfileRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by owner: %w", err)
	}
	return p, nil
}

// Create はプロフィールを作成し、採番されたIDを含むプロフィールを返す。
// UNIQUE(user_id, kind)に違反する場合はErrDuplicateを返す。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	created := *profile
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, kind, location, category, platforms,
		   follower_count, engagement_rate, pricing, content_samples,
		   company_type, industry, marketing_goals, budget)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, verified, created_at`,
		profile.UserID, profile.Kind, profile.Location, profile.Category,
		pq.Array(profile.Platforms), profile.FollowerCount, profile.EngagementRate,
		profile.Pricing, pq.Array(profile.ContentSamples),
		profile.CompanyType, profile.Industry, profile.MarketingGoals, profile.Budget,
	).Scan(&created.ID, &created.Verified, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return &created, nil
}

// Update はパッチのnil以外のフィールドだけを反映する。
func (r *PostgresProfileRepo) Update(ctx context.Context, id int64, patch *model.ProfilePatch) (*model.Profile, error) {
	var platforms, samples interface{}
	if patch.Platforms != nil {
		platforms = pq.Array(*patch.Platforms)
	}
	if patch.ContentSamples != nil {
		samples = pq.Array(*patch.ContentSamples)
	}
	row := r.db.QueryRowContext(ctx,
		`UPDATE profiles SET
		   location = COALESCE($2, location),
		   category = COALESCE($3, category),
		   platforms = COALESCE($4, platforms),
		   follower_count = COALESCE($5, follower_count),
		   engagement_rate = COALESCE($6, engagement_rate),
		   pricing = COALESCE($7, pricing),
		   content_samples = COALESCE($8, content_samples),
		   company_type = COALESCE($9, company_type),
		   industry = COALESCE($10, industry),
		   marketing_goals = COALESCE($11, marketing_goals),
		   budget = COALESCE($12, budget)
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, patch.Location, patch.Category, platforms, patch.FollowerCount,
		patch.EngagementRate, patch.Pricing, samples,
		patch.CompanyType, patch.Industry, patch.MarketingGoals, patch.Budget,
	)
	p, err := scanProfileRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// List は指定種別のプロフィールをフィルタ条件で絞り込んでID昇順で取得する。
// 文字列条件は大文字小文字を区別しない完全一致、プラットフォーム条件は
// 指定値のいずれか1つ以上を含むこと。
func (r *PostgresProfileRepo) List(ctx context.Context, kind model.ProfileKind, filter *model.ProfileFilter) ([]*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE kind = $1`
	args := []interface{}{kind}

	addFilter := func(column, value string) {
		if value == "" || strings.EqualFold(value, model.FilterAny) {
			return
		}
		args = append(args, strings.ToLower(value))
		query += fmt.Sprintf(" AND lower(%s) = $%d", column, len(args))
	}
	if filter != nil {
		addFilter("category", filter.Category)
		addFilter("industry", filter.Industry)
		addFilter("location", filter.Location)
		addFilter("budget", filter.Budget)
		if len(filter.Platforms) > 0 {
			lowered := make([]string, len(filter.Platforms))
			for i, p := range filter.Platforms {
				lowered[i] = strings.ToLower(p)
			}
			args = append(args, pq.Array(lowered))
			query += fmt.Sprintf(" AND ARRAY(SELECT lower(unnest(platforms))) && $%d", len(args))
		}
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*model.Profile, 0)
	for rows.Next() {
		p, err := scanProfileRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// SetVerified は認証済みフラグを設定する。
func (r *PostgresProfileRepo) SetVerified(ctx context.Context, id int64, verified bool) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE profiles SET verified = $2 WHERE id = $1 RETURNING `+profileColumns,
		id, verified,
	)
	p, err := scanProfileRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to set verified: %w", err)
	}
	return p, nil
}

// DeleteByUserID は指定ユーザーの全プロフィールを削除する。
func (r *PostgresProfileRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profiles by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
