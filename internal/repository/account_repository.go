package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/model"
	"github.com/eldiiar/arena-lobby/internal/utils"
)

// ErrAccountExists is returned when registration collides with an existing
// game_id or phone. Handlers should translate this into HTTP 409.
var ErrAccountExists = errors.New("account already exists")

// AccountRepo provides data access to the accounts table. Balances are
// whole currency units; the debit path lives on the allocation transaction
// (see ledger.go), while Credit here serves the admin top-up endpoint.
type AccountRepo struct{ DB *sql.DB }

// NewAccountRepo returns an AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id, game_id, nickname, phone, password_hash, role, balance, blocked, created_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.GameID, &a.Nickname, &a.Phone, &a.PasswordHash,
		&a.Role, &a.Balance, &a.Blocked, &a.CreatedAt)
	return a, err
}

// Create inserts a new player account with a bcrypt-hashed password and a
// zero balance, returning the generated ID. A duplicate game_id or phone
// returns ErrAccountExists.
func (r *AccountRepo) Create(ctx context.Context, gameID, nickname, phone, password string, cost int) (uint64, error) {
	gameID = strings.TrimSpace(gameID)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (game_id, nickname, phone, password_hash, role, balance) VALUES (?,?,?,?,'PLAYER',0)",
		gameID, strings.TrimSpace(nickname), strings.TrimSpace(phone), hash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAccountExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByGameID fetches an account by its external handle, or
// arena.ErrNotFound.
func (r *AccountRepo) GetByGameID(ctx context.Context, gameID string) (model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE game_id=? LIMIT 1", strings.TrimSpace(gameID))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, arena.ErrNotFound
	}
	return a, err
}

// GetByID fetches an account by primary key, or arena.ErrNotFound.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, arena.ErrNotFound
	}
	return a, err
}

// Credit adds amount to the account balance (admin top-up). It returns
// arena.ErrNotFound when no such account exists.
func (r *AccountRepo) Credit(ctx context.Context, id uint64, amount int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ? WHERE id=?", amount, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return arena.ErrNotFound
	}
	return nil
}

// Block marks the account as blocked and scrambles its password hash so
// existing credentials stop working, in one transaction. The caller should
// also revoke the account's refresh tokens.
func (r *AccountRepo) Block(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	scrambled, err := utils.RandomHex(32)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET blocked=1, password_hash=? WHERE id=?", scrambled, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return arena.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
