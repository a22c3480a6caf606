// Copyright (c) 2022 Netskope, Inc. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	dbDriver      = "mysql"
	DefaultDBName = "gchat"
	dbPoolSize    = 4
	dbConnLife    = 30 * time.Minute
	dbTimeout     = 5
)

var ErrBadHostname = fmt.Errorf("hostname is required")

type SQLClient struct {
	db      *sql.DB
	timeout time.Duration
	name    string
}

func (sc *SQLClient) Name() string {
	if sc == nil {
		return ""
	}
	return sc.name
}

func (sc *SQLClient) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sc.timeout)
}

func (sc *SQLClient) Close() error {
	if sc.db != nil {
		err := sc.db.Close()
		sc.db = nil
		return err
	}
	return nil
}

func (sc *SQLClient) GetDB() *sql.DB {
	return sc.db
}

func (sc *SQLClient) Ping(ctx context.Context) error {
	ctx, cancel := sc.context(ctx)
	defer cancel()
	return sc.db.PingContext(ctx)
}

// DSN builds a go-sql-driver/mysql DSN. hostname is host:port.
func DSN(hostname, user, pwd, dbName string) string {
	if dbName == "" {
		dbName = DefaultDBName
	}
	dsn := fmt.Sprintf("tcp(%s)/%s?parseTime=true", hostname, dbName)
	if user != "" {
		if pwd != "" {
			user += ":" + pwd
		}
		dsn = user + "@" + dsn
	}
	return dsn
}

func NewSQLClient(ctx context.Context, hostname, user, pwd string, timeout int, dbName string) (*SQLClient, error) {
	if hostname == "" {
		return nil, ErrBadHostname
	}

	db, err := sql.Open(dbDriver, DSN(hostname, user, pwd, dbName))
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(dbConnLife)
	db.SetMaxOpenConns(dbPoolSize)
	db.SetMaxIdleConns(dbPoolSize)

	if timeout < 1 {
		timeout = dbTimeout
	}

	sc := &SQLClient{
		db:      db,
		timeout: time.Duration(timeout) * time.Second,
		name:    hostname,
	}

	if err = sc.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sc, nil
}
