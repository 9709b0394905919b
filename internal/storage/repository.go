package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"orbit/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrSessionExpired = errors.New("session expired")
)

// SQLiteRepository persists the three per-user collections plus accounts
// and sessions. Dates are stored as RFC3339 UTC strings so lexical order
// in the index matches chronological order.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, p core.UserProfile, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, balance_paise, currency, monthly_limit_paise, avatar_id, card_frozen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, strings.ToLower(p.Email), passwordHash,
		p.Balance.Paise, p.Currency, p.MonthlyLimit.Paise, p.AvatarID, boolToInt(p.CardFrozen))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", p.ID, "email", p.Email)
	return nil
}

// GetProfile implements sync.ProfileReader.
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, balance_paise, currency, monthly_limit_paise, avatar_id, card_frozen
		FROM users WHERE id = ?`, userID)
	return scanProfile(row)
}

// GetUserByEmail returns the profile together with its password hash.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error) {
	var (
		p              core.UserProfile
		hash           string
		balance, limit int64
		frozen         int64
	)
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, balance_paise, currency, monthly_limit_paise, avatar_id, card_frozen
		FROM users WHERE email = ?`, strings.ToLower(email))
	err := row.Scan(&p.ID, &p.Name, &p.Email, &hash, &balance, &p.Currency, &limit, &p.AvatarID, &frozen)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, "", ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("get user by email: %w", err)
	}
	p.Balance = core.Money{Paise: balance}
	p.MonthlyLimit = core.Money{Paise: limit}
	p.CardFrozen = frozen != 0
	return p, hash, nil
}

// AdjustBalance applies a signed delta to the stored balance.
func (r *SQLiteRepository) AdjustBalance(ctx context.Context, userID string, delta core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance_paise = balance_paise + ? WHERE id = ?`, delta.Paise, userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetMonthlyLimit(ctx context.Context, userID string, limit core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET monthly_limit_paise = ? WHERE id = ?`, limit.Paise, userID)
	if err != nil {
		return fmt.Errorf("set monthly limit: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetAvatar(ctx context.Context, userID string, avatarID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_id = ? WHERE id = ?`, avatarID, userID)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetCardFrozen(ctx context.Context, userID string, frozen bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET card_frozen = ? WHERE id = ?`, boolToInt(frozen), userID)
	if err != nil {
		return fmt.Errorf("set card frozen: %w", err)
	}
	return requireRow(res)
}

// --- sessions ---

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, formatTime(expiresAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession resolves a token to its user. Expired sessions are deleted on
// first read rather than by a sweeper.
func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (string, error) {
	var (
		userID    string
		expiresAt string
	)
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ?`, token)
	err := row.Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}

	exp, err := parseTime(expiresAt)
	if err != nil {
		return "", fmt.Errorf("parse session expiry: %w", err)
	}
	if time.Now().After(exp) {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return "", ErrSessionExpired
	}
	return userID, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	var nextBilling any
	if !t.NextBillingDate.IsZero() {
		nextBilling = formatTime(t.NextBillingDate)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, name, category, amount, date, color, is_income, is_subscription, next_billing_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, t.Name, string(t.Category), t.Amount, formatTime(t.Date),
		t.Color, boolToInt(t.IsIncome), boolToInt(t.IsSubscription), nextBilling)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", userID,
		"name", t.Name,
		"amount", t.Amount)
	return nil
}

// ListTransactions implements sync.TransactionLister, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, amount, date, color, is_income, is_subscription, next_billing_date
		FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, amount, date, color, is_income, is_subscription, next_billing_date
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
		}
		return core.Transaction{}, ErrNotFound
	}
	return scanTransaction(rows)
}

// MarkArchived records that the ledger worker copied the transaction.
func (r *SQLiteRepository) MarkArchived(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET archived = 1 WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	return requireRow(res)
}

// ArchivePending identifies a transaction the ledger has not seen yet.
type ArchivePending struct {
	UserID        string
	TransactionID string
}

// ListUnarchived returns up to limit transactions still missing from the
// ledger, oldest first. Used by the worker's startup recovery pass.
func (r *SQLiteRepository) ListUnarchived(ctx context.Context, limit int) ([]ArchivePending, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, id FROM transactions
		WHERE archived = 0 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unarchived: %w", err)
	}
	defer rows.Close()

	var out []ArchivePending
	for rows.Next() {
		var p ArchivePending
		if err := rows.Scan(&p.UserID, &p.TransactionID); err != nil {
			return nil, fmt.Errorf("scan unarchived: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unarchived: %w", err)
	}
	return out, nil
}

// DueSubscription pairs a subscription charge with its owner for renewal.
type DueSubscription struct {
	UserID      string
	Transaction core.Transaction
}

// ListDueSubscriptions returns subscription charges whose next billing
// moment has passed, oldest due first.
func (r *SQLiteRepository) ListDueSubscriptions(ctx context.Context, before time.Time, limit int) ([]DueSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, id, name, category, amount, date, color, is_income, is_subscription, next_billing_date
		FROM transactions
		WHERE is_subscription = 1 AND next_billing_date IS NOT NULL AND next_billing_date <= ?
		ORDER BY next_billing_date ASC LIMIT ?`, formatTime(before), limit)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	var out []DueSubscription
	for rows.Next() {
		var (
			d           DueSubscription
			category    string
			date        string
			income, sub int64
			nextBilling sql.NullString
		)
		t := &d.Transaction
		err := rows.Scan(&d.UserID, &t.ID, &t.Name, &category, &t.Amount, &date,
			&t.Color, &income, &sub, &nextBilling)
		if err != nil {
			return nil, fmt.Errorf("scan due subscription: %w", err)
		}
		t.Category = core.Category(category)
		t.IsIncome = income != 0
		t.IsSubscription = sub != 0
		if t.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("parse due subscription date: %w", err)
		}
		if nextBilling.Valid {
			if t.NextBillingDate, err = parseTime(nextBilling.String); err != nil {
				return nil, fmt.Errorf("parse next billing date: %w", err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due subscriptions: %w", err)
	}
	return out, nil
}

// ClearNextBillingDate retires a subscription row from the renewal scan,
// done once its renewal charge has been written.
func (r *SQLiteRepository) ClearNextBillingDate(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET next_billing_date = NULL WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("clear next billing date: %w", err)
	}
	return requireRow(res)
}

// --- goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID string, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_paise, saved_paise)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, userID, g.Name, g.Target.Paise, g.Saved.Paise)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		"goal_id", g.ID, "user_id", userID, "name", g.Name)
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

// ListGoals implements sync.GoalLister, oldest first.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_paise, saved_paise
		FROM goals WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g             core.Goal
			target, saved int64
		)
		if err := rows.Scan(&g.ID, &g.Name, &target, &saved); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Target = core.Money{Paise: target}
		g.Saved = core.Money{Paise: saved}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	var (
		g             core.Goal
		target, saved int64
	)
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, target_paise, saved_paise
		FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	err := row.Scan(&g.ID, &g.Name, &target, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	g.Target = core.Money{Paise: target}
	g.Saved = core.Money{Paise: saved}
	return g, nil
}

// AddToGoalSaved applies a signed delta to a goal's saved amount.
func (r *SQLiteRepository) AddToGoalSaved(ctx context.Context, userID, id string, delta core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET saved_paise = saved_paise + ? WHERE user_id = ? AND id = ?`,
		delta.Paise, userID, id)
	if err != nil {
		return fmt.Errorf("add to goal saved: %w", err)
	}
	return requireRow(res)
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (core.UserProfile, error) {
	var (
		p              core.UserProfile
		balance, limit int64
		frozen         int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &balance, &p.Currency, &limit, &p.AvatarID, &frozen)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.Balance = core.Money{Paise: balance}
	p.MonthlyLimit = core.Money{Paise: limit}
	p.CardFrozen = frozen != 0
	return p, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		category    string
		date        string
		income, sub int64
		nextBilling sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &category, &t.Amount, &date, &t.Color, &income, &sub, &nextBilling)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Category = core.Category(category)
	t.IsIncome = income != 0
	t.IsSubscription = sub != 0
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	if nextBilling.Valid {
		if t.NextBillingDate, err = parseTime(nextBilling.String); err != nil {
			return core.Transaction{}, fmt.Errorf("parse next billing date: %w", err)
		}
	}
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// formatTime uses second granularity so the stored strings sort
// lexically in chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
