// Package history 保存每次摘要请求的诊断记录（不保存摘要内容，也不作为缓存复用）。
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS summary_runs (
	id           TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	channel      TEXT NOT NULL,
	style        TEXT NOT NULL,
	input_words  INTEGER NOT NULL,
	output_words INTEGER NOT NULL,
	chunks       INTEGER NOT NULL,
	depth        INTEGER NOT NULL,
	coverage     REAL NOT NULL,
	degraded     INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	error_kind   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summary_runs_created_at ON summary_runs(created_at);
`

// Run 单次摘要请求的诊断信息
type Run struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Channel     string        `json:"channel"`
	Style       string        `json:"style"`
	InputWords  int           `json:"input_words"`
	OutputWords int           `json:"output_words"`
	Chunks      int           `json:"chunks"`
	Depth       int           `json:"depth"`
	Coverage    float64       `json:"coverage"`
	Degraded    bool          `json:"degraded"`
	Duration    time.Duration `json:"-"`
	ErrorKind   string        `json:"error_kind,omitempty"`
}

// MarshalJSON 耗时以毫秒输出
func (r Run) MarshalJSON() ([]byte, error) {
	type plain Run
	return json.Marshal(struct {
		plain
		DurationMs int64 `json:"duration_ms"`
	}{
		plain:      plain(r),
		DurationMs: r.Duration.Milliseconds(),
	})
}

type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）数据库并建表，path 为 ":memory:" 时使用内存库
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?mode=rwc&_journal_mode=WAL"
	if path == memoryPath {
		dsn = memoryPath
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存库每个连接相互独立，sqlite 写入也只允许单连接
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("创建数据库表失败: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record 保存一条运行记录
func (s *Store) Record(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summary_runs
			(id, created_at, channel, style, input_words, output_words, chunks, depth, coverage, degraded, duration_ms, error_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UnixMilli(),
		run.Channel,
		run.Style,
		run.InputWords,
		run.OutputWords,
		run.Chunks,
		run.Depth,
		run.Coverage,
		run.Degraded,
		run.Duration.Milliseconds(),
		run.ErrorKind,
	)
	if err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近 limit 条记录
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, channel, style, input_words, output_words, chunks, depth, coverage, degraded, duration_ms, error_kind
		FROM summary_runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		var (
			run        Run
			createdAt  int64
			durationMs int64
		)
		if err := rows.Scan(
			&run.ID,
			&createdAt,
			&run.Channel,
			&run.Style,
			&run.InputWords,
			&run.OutputWords,
			&run.Chunks,
			&run.Depth,
			&run.Coverage,
			&run.Degraded,
			&durationMs,
			&run.ErrorKind,
		); err != nil {
			return nil, fmt.Errorf("读取运行记录失败: %w", err)
		}
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// DeleteBefore 删除 cutoff 之前的记录，返回删除条数
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM summary_runs WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("清理运行记录失败: %w", err)
	}
	return result.RowsAffected()
}
