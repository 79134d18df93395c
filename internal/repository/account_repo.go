package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/todoapi/internal/database"
	"github.com/hitoshi/todoapi/internal/model"
)

// SQLAccountRepo はdatabase/sqlを使用したアカウントリポジトリ。
// PostgreSQLとSQLiteの両方で動作する。
type SQLAccountRepo struct {
	db *database.DB
}

// NewSQLAccountRepo はSQLAccountRepoを生成する。
func NewSQLAccountRepo(db *database.DB) *SQLAccountRepo {
	return &SQLAccountRepo{db: db}
}

const accountColumns = `id, external_id, email, display_name, created_at`

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDは問い合わせずに見つからない扱いにする。
func (r *SQLAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return account, nil
}

// FindByExternalID は外部IdPのsubjectでアカウントを取得する。見つからない場合はnilを返す。
func (r *SQLAccountRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = $1`, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by external ID: %w", err)
	}
	return account, nil
}

// Create はアカウントを作成する。
// external_idの一意制約に違反した場合はErrDuplicateExternalIDを返す。
func (r *SQLAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5)`),
		account.ID, account.ExternalID, account.Email, account.DisplayName, account.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateExternalID
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLAccountRepo) findOne(ctx context.Context, query string, arg any) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), arg).Scan(
		&account.ID, &account.ExternalID, &account.Email, &account.DisplayName, &account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*SQLAccountRepo)(nil)
