// Database Management
//
// Copyright (c) 2021, 2022, 2023  Philip Kaludercic
//
// This file is part of go-c4t.
//
// go-c4t is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-c4t is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-c4t. If not, see
// <http://www.gnu.org/licenses/>

package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"go-c4t"
	"go-c4t/conf"
)

//go:embed *.sql
var sql_dir embed.FS

// DB is a team registry backed by a SQLite database
type DB struct {
	conf *conf.Conf

	// The database connections
	read  *sql.DB
	write *sql.DB

	// The SQL queries are embedded from the *.sql files in this
	// directory.  QUERIES are handled by READ, and COMMANDS are
	// handled by WRITE.
	queries  map[string]*sql.Stmt
	commands map[string]*sql.Stmt
}

var _ c4t.Registry = &DB{}

func (db *DB) Put(ctx context.Context, t *c4t.Team) error {
	_, err := db.commands["insert-team"].ExecContext(ctx, t.Name, t.Endpoint)
	return errors.Wrapf(err, "saving %s", t.Name)
}

func (db *DB) List(ctx context.Context) (teams []*c4t.Team, err error) {
	rows, err := db.queries["select-teams"].QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t c4t.Team
		err = rows.Scan(&t.Name, &t.Endpoint)
		if err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (db *DB) Clear(ctx context.Context) error {
	res, err := db.commands["delete-teams"].ExecContext(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		db.conf.Debug.Println("Deleted", n, "teams")
	}
	return nil
}

func (db *DB) Start() {
	tick := time.NewTicker(24 * time.Hour)
	defer tick.Stop()
	for {
		select {
		case <-db.conf.Ctx.Done():
			return
		case <-tick.C:
			// https://www.sqlite.org/pragma.html#pragma_optimize
			_, err := db.write.Exec("PRAGMA optimize;")
			if err != nil {
				db.conf.Log.Print(err)
			}
		}
	}
}

func (db *DB) Shutdown() {
	var err error

	// https://www.sqlite.org/pragma.html#pragma_optimize
	_, err = db.write.Exec("PRAGMA optimize;")
	if err != nil {
		db.conf.Log.Print(err)
	}

	err = db.Close()
	if err != nil {
		db.conf.Log.Print(err)
	}
}

func (db *DB) Close() error {
	for _, stmt := range db.queries {
		stmt.Close()
	}
	for _, stmt := range db.commands {
		stmt.Close()
	}
	err := db.write.Close()
	if rerr := db.read.Close(); err == nil {
		err = rerr
	}
	return err
}

func (*DB) String() string { return "Database Manager" }

// Open the database FILE and prepare all queries
func Open(config *conf.Conf, file string) (*DB, error) {
	read, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	write, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	write.SetConnMaxLifetime(0)
	write.SetMaxIdleConns(1)
	write.SetMaxOpenConns(1)

	db := &DB{
		conf:     config,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
		write:    write,
		read:     read,
	}

	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = normal",
		// https://www.sqlite.org/pragma.html#pragma_temp_store
		"temp_store = memory",
	} {
		config.Debug.Printf("Run PRAGMA %v", pragma)
		_, err = db.write.Exec("PRAGMA " + pragma + ";")
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, pragma)
		}
	}

	entries, err := sql_dir.ReadDir(".")
	if err != nil {
		db.Close()
		return nil, err
	}
	// Tables have to exist before statements referring to them
	// can be prepared
	for _, pass := range []bool{true, false} {
		for _, entry := range entries {
			base := path.Base(entry.Name())
			create := strings.HasPrefix(base, "create-")
			if !entry.Type().IsRegular() || create != pass {
				continue
			}

			data, err := fs.ReadFile(sql_dir, entry.Name())
			if err != nil {
				db.Close()
				return nil, err
			}

			query := strings.TrimSuffix(base, ".sql")
			switch {
			case create:
				_, err = db.write.Exec(string(data))
				config.Debug.Printf("Executed query %v", base)
			case strings.HasPrefix(query, "select-"):
				db.queries[query], err = db.read.Prepare(string(data))
				config.Debug.Printf("Registered query %v", query)
			default:
				db.commands[query], err = db.write.Prepare(string(data))
				config.Debug.Printf("Registered command %v", query)
			}
			if err != nil {
				db.Close()
				return nil, errors.Wrap(err, entry.Name())
			}
		}
	}

	return db, nil
}

// Register opens the configured database and registers it with the
// server.  If the database cannot be used, teams are only kept in
// memory.
func Register(config *conf.Conf) c4t.Registry {
	if config.Database == "" {
		config.Log.Print("No database configured, teams will not persist")
		return MakeMemory()
	}

	db, err := Open(config, config.Database)
	if err != nil {
		config.Log.Printf("Falling back to in-memory registry: %s", err)
		return MakeMemory()
	}
	config.Register(db)
	return db
}
