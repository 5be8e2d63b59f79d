// Package storage keeps conversation state in SQLite so an unfinished flow
// survives a restart. Scheduled reminders are never stored here.
package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"telegram-reminder-bot/internal/models"
)

//go:embed schema.sql
var ddl string

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---------- conversations ---------------------------------------------------

func (d *DB) Load(chatID int64) (models.ConversationState, bool, error) {
	st, err := scanState(d.QueryRow(`
        SELECT chat_id, step, pending_text, updated_at
        FROM conversations WHERE chat_id=?`, chatID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConversationState{}, false, nil
	}
	if err != nil {
		return models.ConversationState{}, false, fmt.Errorf("load chat %d: %w", chatID, err)
	}
	return st, true, nil
}

func (d *DB) Save(st models.ConversationState) error {
	var pending sql.NullString
	if st.Step == models.StepAwaitingTime {
		pending = sql.NullString{String: st.PendingText, Valid: true}
	}
	_, err := d.Exec(`
        INSERT INTO conversations (chat_id, step, pending_text, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET step=excluded.step,
            pending_text=excluded.pending_text,
            updated_at=excluded.updated_at
    `, st.ChatID, int(st.Step), pending, st.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save chat %d: %w", st.ChatID, err)
	}
	return nil
}

func (d *DB) Delete(chatID int64) error {
	if _, err := d.Exec(`DELETE FROM conversations WHERE chat_id=?`, chatID); err != nil {
		return fmt.Errorf("delete chat %d: %w", chatID, err)
	}
	return nil
}

func (d *DB) All() ([]models.ConversationState, error) {
	rows, err := d.Query(`SELECT chat_id, step, pending_text, updated_at FROM conversations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.ConversationState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (models.ConversationState, error) {
	var (
		st      models.ConversationState
		step    int
		pending sql.NullString
		updated int64
	)
	if err := row.Scan(&st.ChatID, &step, &pending, &updated); err != nil {
		return models.ConversationState{}, err
	}
	st.Step = models.Step(step)
	if pending.Valid {
		st.PendingText = pending.String
	}
	st.UpdatedAt = time.UnixMilli(updated)
	return st, nil
}
