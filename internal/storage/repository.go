// Package storage persists all record collections in SQLite. Monthly
// collections (expenses, fixed expenses, pendencias, entries) are keyed
// by user and year-month to match how every read path consumes them.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
)

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

func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return err
}

// Cards

func (r *SQLiteRepository) CreateCard(ctx context.Context, userID string, c core.Card) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (id, user_id, name, icon, closing_day, due_day, credit_limit_cents, blocked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Icon, c.ClosingDay, c.DueDay, c.CreditLimit.Cents, c.Blocked)
	return err
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, userID string, c core.Card) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, icon = ?, closing_day = ?, due_day = ?, credit_limit_cents = ?, blocked = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Icon, c.ClosingDay, c.DueDay, c.CreditLimit.Cents, c.Blocked, c.ID, userID)
	if err != nil {
		return err
	}
	return requireRow(res, "card", c.ID)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func (r *SQLiteRepository) GetCard(ctx context.Context, userID, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, icon, closing_day, due_day, credit_limit_cents, blocked
		FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCard(row)
	if err != nil {
		return core.Card{}, notFound(err, "card", id)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context, userID string) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, closing_day, due_day, credit_limit_cents, blocked
		FROM cards WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (core.Card, error) {
	var c core.Card
	err := s.Scan(&c.ID, &c.Name, &c.Icon, &c.ClosingDay, &c.DueDay, &c.CreditLimit.Cents, &c.Blocked)
	return c, err
}

// requireRow turns a zero-row UPDATE/DELETE into ErrNotFound.
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// Expenses

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID string, ym core.YearMonth, e core.Expense) error {
	url, path := receiptCols(e.Receipt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, year_month, date, category, description, payment_method, amount_cents, receipt_url, receipt_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, ym.String(), e.Date.String(), e.Category, e.Description, e.PaymentMethod, e.Amount.Cents, url, path)
	return err
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID string, ym core.YearMonth, e core.Expense) error {
	url, path := receiptCols(e.Receipt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET date = ?, category = ?, description = ?, payment_method = ?, amount_cents = ?, receipt_url = ?, receipt_path = ?
		WHERE id = ? AND user_id = ? AND year_month = ?`,
		e.Date.String(), e.Category, e.Description, e.PaymentMethod, e.Amount.Cents, url, path, e.ID, userID, ym.String())
	if err != nil {
		return err
	}
	return requireRow(res, "expense", e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM expenses WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	return err
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, category, description, payment_method, amount_cents, receipt_url, receipt_path
		FROM expenses WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound(err, "expense", id)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, ym core.YearMonth) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, category, description, payment_method, amount_cents, receipt_url, receipt_path
		FROM expenses WHERE user_id = ? AND year_month = ? ORDER BY date, id`, userID, ym.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func receiptCols(rec *core.Receipt) (sql.NullString, sql.NullString) {
	if rec == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: rec.URL, Valid: true}, sql.NullString{String: rec.Path, Valid: true}
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e         core.Expense
		date      string
		url, path sql.NullString
	)
	if err := s.Scan(&e.ID, &date, &e.Category, &e.Description, &e.PaymentMethod, &e.Amount.Cents, &url, &path); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	e.Date = d
	if url.Valid || path.Valid {
		e.Receipt = &core.Receipt{URL: url.String, Path: path.String}
	}
	return e, nil
}

// Fixed expenses

func (r *SQLiteRepository) CreateFixed(ctx context.Context, userID string, ym core.YearMonth, f core.FixedExpense) error {
	groupID, cur, total := installmentCols(f.Installment)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (id, user_id, year_month, due_date, category, description, payment_method, amount_cents, recurrence, group_id, installment_current, installment_total, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, userID, ym.String(), f.DueDate.String(), f.Category, f.Description, f.PaymentMethod,
		f.Amount.Cents, string(f.Recurrence), groupID, cur, total, string(f.Status))
	return err
}

func (r *SQLiteRepository) UpdateFixed(ctx context.Context, userID string, ym core.YearMonth, f core.FixedExpense) error {
	groupID, cur, total := installmentCols(f.Installment)
	res, err := r.db.ExecContext(ctx, `
		UPDATE fixed_expenses SET due_date = ?, category = ?, description = ?, payment_method = ?, amount_cents = ?, recurrence = ?, group_id = ?, installment_current = ?, installment_total = ?, status = ?
		WHERE id = ? AND user_id = ? AND year_month = ?`,
		f.DueDate.String(), f.Category, f.Description, f.PaymentMethod, f.Amount.Cents,
		string(f.Recurrence), groupID, cur, total, string(f.Status), f.ID, userID, ym.String())
	if err != nil {
		return err
	}
	return requireRow(res, "fixed expense", f.ID)
}

func (r *SQLiteRepository) DeleteFixed(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM fixed_expenses WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	return err
}

func (r *SQLiteRepository) GetFixed(ctx context.Context, userID string, ym core.YearMonth, id string) (core.FixedExpense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, due_date, category, description, payment_method, amount_cents, recurrence, group_id, installment_current, installment_total, status
		FROM fixed_expenses WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	f, err := scanFixed(row)
	if err != nil {
		return core.FixedExpense{}, notFound(err, "fixed expense", id)
	}
	return f, nil
}

func (r *SQLiteRepository) ListFixed(ctx context.Context, userID string, ym core.YearMonth) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, due_date, category, description, payment_method, amount_cents, recurrence, group_id, installment_current, installment_total, status
		FROM fixed_expenses WHERE user_id = ? AND year_month = ? ORDER BY due_date, id`, userID, ym.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		f, err := scanFixed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func installmentCols(info *core.InstallmentInfo) (sql.NullString, sql.NullInt64, sql.NullInt64) {
	if info == nil {
		return sql.NullString{}, sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullString{String: info.GroupID, Valid: true},
		sql.NullInt64{Int64: int64(info.Current), Valid: true},
		sql.NullInt64{Int64: int64(info.Total), Valid: true}
}

func scanFixed(s scanner) (core.FixedExpense, error) {
	var (
		f          core.FixedExpense
		dueDate    string
		recurrence string
		status     string
		groupID    sql.NullString
		cur, total sql.NullInt64
	)
	if err := s.Scan(&f.ID, &dueDate, &f.Category, &f.Description, &f.PaymentMethod, &f.Amount.Cents,
		&recurrence, &groupID, &cur, &total, &status); err != nil {
		return core.FixedExpense{}, err
	}
	d, err := core.ParseDate(dueDate)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("fixed expense %s: %w", f.ID, err)
	}
	f.DueDate = d
	f.Recurrence = core.Recurrence(recurrence)
	f.Status = core.PayStatus(status)
	if groupID.Valid {
		f.Installment = &core.InstallmentInfo{
			GroupID: groupID.String,
			Current: int(cur.Int64),
			Total:   int(total.Int64),
		}
	}
	return f, nil
}

// Fixed rules

func (r *SQLiteRepository) SaveRule(ctx context.Context, userID string, rule core.FixedRule) error {
	exceptions, err := json.Marshal(rule.Exceptions)
	if err != nil {
		return fmt.Errorf("encode rule exceptions: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fixed_rules (group_id, user_id, category, description, payment_method, amount_cents, recurrence, due_day, start_month, total_installments, exceptions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET
			category = excluded.category,
			description = excluded.description,
			payment_method = excluded.payment_method,
			amount_cents = excluded.amount_cents,
			recurrence = excluded.recurrence,
			due_day = excluded.due_day,
			start_month = excluded.start_month,
			total_installments = excluded.total_installments,
			exceptions = excluded.exceptions`,
		rule.GroupID, userID, rule.Category, rule.Description, rule.PaymentMethod, rule.Amount.Cents,
		string(rule.Recurrence), rule.DueDay, rule.StartMonth.String(), rule.TotalInstallments, string(exceptions))
	return err
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, userID, groupID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM fixed_rules WHERE group_id = ? AND user_id = ?`, groupID, userID)
	return err
}

func (r *SQLiteRepository) GetRule(ctx context.Context, userID, groupID string) (core.FixedRule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT group_id, category, description, payment_method, amount_cents, recurrence, due_day, start_month, total_installments, exceptions
		FROM fixed_rules WHERE group_id = ? AND user_id = ?`, groupID, userID)
	rule, err := scanRule(row)
	if err != nil {
		return core.FixedRule{}, notFound(err, "fixed rule", groupID)
	}
	return rule, nil
}

func (r *SQLiteRepository) ListRules(ctx context.Context, userID string) ([]core.FixedRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id, category, description, payment_method, amount_cents, recurrence, due_day, start_month, total_installments, exceptions
		FROM fixed_rules WHERE user_id = ? ORDER BY group_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FixedRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanRule(s scanner) (core.FixedRule, error) {
	var (
		rule       core.FixedRule
		recurrence string
		startMonth string
		exceptions string
	)
	if err := s.Scan(&rule.GroupID, &rule.Category, &rule.Description, &rule.PaymentMethod, &rule.Amount.Cents,
		&recurrence, &rule.DueDay, &startMonth, &rule.TotalInstallments, &exceptions); err != nil {
		return core.FixedRule{}, err
	}
	rule.Recurrence = core.Recurrence(recurrence)
	ym, err := core.ParseYearMonth(startMonth)
	if err != nil {
		return core.FixedRule{}, fmt.Errorf("fixed rule %s: %w", rule.GroupID, err)
	}
	rule.StartMonth = ym
	if err := json.Unmarshal([]byte(exceptions), &rule.Exceptions); err != nil {
		return core.FixedRule{}, fmt.Errorf("decode rule exceptions for %s: %w", rule.GroupID, err)
	}
	if rule.Exceptions == nil {
		rule.Exceptions = make(map[string]bool)
	}
	return rule, nil
}

// Installment purchases

func (r *SQLiteRepository) CreateSpec(ctx context.Context, userID string, p core.InstallmentPurchase) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO card_specs (id, user_id, card_name, description, total_amount_cents, installments, purchase_date, start_month, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, userID, p.CardName, p.Description, p.TotalAmount.Cents, p.Installments,
		p.PurchaseDate.String(), p.StartMonth.String(), string(p.Status))
	return err
}

func (r *SQLiteRepository) UpdateSpec(ctx context.Context, userID string, p core.InstallmentPurchase) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE card_specs SET card_name = ?, description = ?, total_amount_cents = ?, installments = ?, purchase_date = ?, start_month = ?, status = ?
		WHERE id = ? AND user_id = ?`,
		p.CardName, p.Description, p.TotalAmount.Cents, p.Installments,
		p.PurchaseDate.String(), p.StartMonth.String(), string(p.Status), p.ID, userID)
	if err != nil {
		return err
	}
	return requireRow(res, "installment purchase", p.ID)
}

func (r *SQLiteRepository) DeleteSpec(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM card_specs WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func (r *SQLiteRepository) GetSpec(ctx context.Context, userID, id string) (core.InstallmentPurchase, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, card_name, description, total_amount_cents, installments, purchase_date, start_month, status
		FROM card_specs WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanSpec(row)
	if err != nil {
		return core.InstallmentPurchase{}, notFound(err, "installment purchase", id)
	}
	return p, nil
}

func (r *SQLiteRepository) ListSpecs(ctx context.Context, userID string) ([]core.InstallmentPurchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, card_name, description, total_amount_cents, installments, purchase_date, start_month, status
		FROM card_specs WHERE user_id = ? ORDER BY purchase_date, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.InstallmentPurchase
	for rows.Next() {
		p, err := scanSpec(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanSpec(s scanner) (core.InstallmentPurchase, error) {
	var (
		p            core.InstallmentPurchase
		purchaseDate string
		startMonth   string
		status       string
	)
	if err := s.Scan(&p.ID, &p.CardName, &p.Description, &p.TotalAmount.Cents, &p.Installments,
		&purchaseDate, &startMonth, &status); err != nil {
		return core.InstallmentPurchase{}, err
	}
	d, err := core.ParseDate(purchaseDate)
	if err != nil {
		return core.InstallmentPurchase{}, fmt.Errorf("installment purchase %s: %w", p.ID, err)
	}
	p.PurchaseDate = d
	ym, err := core.ParseYearMonth(startMonth)
	if err != nil {
		return core.InstallmentPurchase{}, fmt.Errorf("installment purchase %s: %w", p.ID, err)
	}
	p.StartMonth = ym
	p.Status = core.SpecStatus(status)
	return p, nil
}

// Pendencias

func (r *SQLiteRepository) CreatePendencia(ctx context.Context, userID string, ym core.YearMonth, p core.Pendencia) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pendencias (id, user_id, year_month, kind, person, description, amount_cents, due_date, payment_method, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, userID, ym.String(), string(p.Kind), p.Person, p.Description, p.Amount.Cents,
		p.DueDate.String(), p.PaymentMethod, string(p.Status))
	return err
}

func (r *SQLiteRepository) UpdatePendencia(ctx context.Context, userID string, ym core.YearMonth, p core.Pendencia) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pendencias SET kind = ?, person = ?, description = ?, amount_cents = ?, due_date = ?, payment_method = ?, status = ?
		WHERE id = ? AND user_id = ? AND year_month = ?`,
		string(p.Kind), p.Person, p.Description, p.Amount.Cents, p.DueDate.String(),
		p.PaymentMethod, string(p.Status), p.ID, userID, ym.String())
	if err != nil {
		return err
	}
	return requireRow(res, "pendencia", p.ID)
}

func (r *SQLiteRepository) DeletePendencia(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM pendencias WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	return err
}

func (r *SQLiteRepository) GetPendencia(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Pendencia, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, person, description, amount_cents, due_date, payment_method, status
		FROM pendencias WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	p, err := scanPendencia(row)
	if err != nil {
		return core.Pendencia{}, notFound(err, "pendencia", id)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPendencias(ctx context.Context, userID string, ym core.YearMonth) ([]core.Pendencia, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, person, description, amount_cents, due_date, payment_method, status
		FROM pendencias WHERE user_id = ? AND year_month = ? ORDER BY due_date, id`, userID, ym.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Pendencia
	for rows.Next() {
		p, err := scanPendencia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPendencia(s scanner) (core.Pendencia, error) {
	var (
		p       core.Pendencia
		kind    string
		dueDate string
		status  string
	)
	if err := s.Scan(&p.ID, &kind, &p.Person, &p.Description, &p.Amount.Cents, &dueDate,
		&p.PaymentMethod, &status); err != nil {
		return core.Pendencia{}, err
	}
	p.Kind = core.PendenciaKind(kind)
	p.Status = core.PayStatus(status)
	d, err := core.ParseDate(dueDate)
	if err != nil {
		return core.Pendencia{}, fmt.Errorf("pendencia %s: %w", p.ID, err)
	}
	p.DueDate = d
	return p, nil
}

// Entries

func (r *SQLiteRepository) CreateEntry(ctx context.Context, userID string, ym core.YearMonth, e core.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, user_id, year_month, date, description, amount_cents, km, hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, ym.String(), e.Date.String(), e.Description, e.Amount.Cents, e.Km, e.Hours)
	return err
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, userID string, ym core.YearMonth, e core.Entry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET date = ?, description = ?, amount_cents = ?, km = ?, hours = ?
		WHERE id = ? AND user_id = ? AND year_month = ?`,
		e.Date.String(), e.Description, e.Amount.Cents, e.Km, e.Hours, e.ID, userID, ym.String())
	if err != nil {
		return err
	}
	return requireRow(res, "entry", e.ID)
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM entries WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	return err
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, description, amount_cents, km, hours
		FROM entries WHERE id = ? AND user_id = ? AND year_month = ?`, id, userID, ym.String())
	e, err := scanEntry(row)
	if err != nil {
		return core.Entry{}, notFound(err, "entry", id)
	}
	return e, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, userID string, ym core.YearMonth) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, km, hours
		FROM entries WHERE user_id = ? AND year_month = ? ORDER BY date, id`, userID, ym.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(s scanner) (core.Entry, error) {
	var (
		e    core.Entry
		date string
	)
	if err := s.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents, &e.Km, &e.Hours); err != nil {
		return core.Entry{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Date = d
	return e, nil
}

// Balance ledger

func (r *SQLiteRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT balance_cents FROM balances WHERE user_id = ?`, userID).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return cents, err
}

func (r *SQLiteRepository) SetBalance(ctx context.Context, userID string, cents int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, balance_cents) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET balance_cents = excluded.balance_cents`,
		userID, cents)
	return err
}

// Investments

func (r *SQLiteRepository) CreatePosition(ctx context.Context, userID string, p core.Investment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO investment_positions (id, user_id, bank, type_general, type_name, invested_cents, current_cents, cdi_percent, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, userID, p.Bank, p.TypeGeneral, p.TypeName, p.Invested.Cents, p.Current.Cents,
		p.CDIPercent, p.LastUpdate.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) UpdatePosition(ctx context.Context, userID string, p core.Investment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE investment_positions SET bank = ?, type_general = ?, type_name = ?, invested_cents = ?, current_cents = ?, cdi_percent = ?, last_update = ?
		WHERE id = ? AND user_id = ?`,
		p.Bank, p.TypeGeneral, p.TypeName, p.Invested.Cents, p.Current.Cents,
		p.CDIPercent, p.LastUpdate.UTC().Format(time.RFC3339), p.ID, userID)
	if err != nil {
		return err
	}
	return requireRow(res, "investment position", p.ID)
}

func (r *SQLiteRepository) DeletePosition(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM investment_positions WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func (r *SQLiteRepository) ListPositions(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bank, type_general, type_name, invested_cents, current_cents, cdi_percent, last_update
		FROM investment_positions WHERE user_id = ? ORDER BY bank, type_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		var (
			p          core.Investment
			lastUpdate string
		)
		if err := rows.Scan(&p.ID, &p.Bank, &p.TypeGeneral, &p.TypeName, &p.Invested.Cents,
			&p.Current.Cents, &p.CDIPercent, &lastUpdate); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, lastUpdate)
		if err != nil {
			return nil, fmt.Errorf("investment position %s: %w", p.ID, err)
		}
		p.LastUpdate = ts
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AppendMovement(ctx context.Context, userID string, m core.InvestmentMovement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO investment_movements (id, user_id, date, kind, bank, type_name, amount_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, userID, m.Date.String(), m.Kind, m.Bank, m.TypeName, m.Amount.Cents)
	return err
}

func (r *SQLiteRepository) ListMovements(ctx context.Context, userID string) ([]core.InvestmentMovement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, kind, bank, type_name, amount_cents
		FROM investment_movements WHERE user_id = ? ORDER BY date DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.InvestmentMovement
	for rows.Next() {
		var (
			m    core.InvestmentMovement
			date string
		)
		if err := rows.Scan(&m.ID, &date, &m.Kind, &m.Bank, &m.TypeName, &m.Amount.Cents); err != nil {
			return nil, err
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("investment movement %s: %w", m.ID, err)
		}
		m.Date = d
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetInvestmentConfig(ctx context.Context, userID string) (core.InvestmentConfig, error) {
	var cfg core.InvestmentConfig
	err := r.db.QueryRowContext(ctx, `
		SELECT cdi_base FROM investment_config WHERE user_id = ?`, userID).Scan(&cfg.CDIBase)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InvestmentConfig{}, fmt.Errorf("investment config for %s: %w", userID, core.ErrNotFound)
	}
	return cfg, err
}

func (r *SQLiteRepository) SetInvestmentConfig(ctx context.Context, userID string, cfg core.InvestmentConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO investment_config (user_id, cdi_base) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET cdi_base = excluded.cdi_base`,
		userID, cfg.CDIBase)
	return err
}

// ListUserIDs returns every user with investment positions; the accrual
// sweep visits only them.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM investment_positions ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Invoice sources

// InvoiceSnapshot loads the raw material for one aggregation pass: the
// viewing month and its predecessor, plus all installment purchases.
func (r *SQLiteRepository) InvoiceSnapshot(ctx context.Context, userID string, target core.YearMonth) (invoice.Snapshot, error) {
	var (
		snap invoice.Snapshot
		err  error
	)
	if snap.Cards, err = r.ListCards(ctx, userID); err != nil {
		return snap, fmt.Errorf("load cards: %w", err)
	}
	if snap.PrevExpenses, err = r.ListExpenses(ctx, userID, target.Prev()); err != nil {
		return snap, fmt.Errorf("load previous expenses: %w", err)
	}
	if snap.CurExpenses, err = r.ListExpenses(ctx, userID, target); err != nil {
		return snap, fmt.Errorf("load expenses: %w", err)
	}
	if snap.PrevFixed, err = r.ListFixed(ctx, userID, target.Prev()); err != nil {
		return snap, fmt.Errorf("load previous fixed expenses: %w", err)
	}
	if snap.CurFixed, err = r.ListFixed(ctx, userID, target); err != nil {
		return snap, fmt.Errorf("load fixed expenses: %w", err)
	}
	if snap.Purchases, err = r.ListSpecs(ctx, userID); err != nil {
		return snap, fmt.Errorf("load installment purchases: %w", err)
	}
	return snap, nil
}

// InvoicePaid reports whether a payment marker exists for the card's
// invoice month, in either the expense records or the legacy pendencia
// form.
func (r *SQLiteRepository) InvoicePaid(ctx context.Context, userID, cardName string, ym core.YearMonth) (bool, error) {
	desc := core.InvoicePaymentDescription(cardName)

	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM expenses
		WHERE user_id = ? AND year_month = ? AND category = ? AND description = ?`,
		userID, ym.String(), core.CategoryInvoice, desc).Scan(&n)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM pendencias
		WHERE user_id = ? AND year_month = ? AND status = ? AND description = ?`,
		userID, ym.String(), string(core.StatusPaid), desc).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
