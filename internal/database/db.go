// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect は接続先データベースの種類を表す。
type Dialect string

const (
	// DialectPostgres は本番用のPostgreSQLを示す。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はローカル開発・テスト用のSQLiteを示す。
	DialectSQLite Dialect = "sqlite"
)

const sqliteScheme = "sqlite://"

// DB は*sql.DBに接続先のDialectを付与したもの。
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DialectFromURL は接続URLのスキームからDialectを判定する。
// postgres:// / postgresql:// はPostgreSQL、sqlite:// はSQLiteとして扱う。
func DialectFromURL(databaseURL string) (Dialect, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(databaseURL, sqliteScheme):
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme: %q", redactURL(databaseURL))
	}
}

// Open はdatabaseURLのスキームに応じたドライバでデータベース接続を開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*DB, error) {
	dialect, err := DialectFromURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectSQLite:
		db, err := sql.Open("sqlite", sqliteDSN(databaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLiteは単一ライターのため、接続を1本に絞って書き込み競合を避ける
		db.SetMaxOpenConns(1)
		return &DB{DB: db, Dialect: DialectSQLite}, nil
	default:
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &DB{DB: db, Dialect: DialectPostgres}, nil
	}
}

// Rebind はPostgreSQL形式のプレースホルダ（$1, $2, ...）を
// Dialectに合わせて書き換える。SQLiteでは番号付きの ?1, ?2 に変換する。
func (db *DB) Rebind(query string) string {
	if db.Dialect == DialectSQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

// IsUniqueViolation はエラーが一意制約違反によるものかを判定する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}

// sqliteDSN は sqlite://path 形式のURLをmodernc.org/sqliteのDSNに変換する。
func sqliteDSN(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, sqliteScheme)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// redactURL は接続URLの認証情報をマスクする。
func redactURL(databaseURL string) string {
	if at := strings.LastIndex(databaseURL, "@"); at >= 0 {
		if scheme := strings.Index(databaseURL, "://"); scheme >= 0 && scheme < at {
			return databaseURL[:scheme+3] + "***" + databaseURL[at:]
		}
	}
	return databaseURL
}
