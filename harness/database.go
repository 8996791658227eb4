// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package harness

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
	_ "modernc.org/sqlite"
)

const connectTimeout = 5 * time.Second

// openDatabase connects the database query routes run against. No configuration
// means no database.
func openDatabase(dc *model.DatabaseConfig) (*sql.DB, error) {
	if dc == nil {
		return nil, nil
	}

	db, err := sql.Open(dc.Driver, dc.DSN)
	if err != nil {
		return nil, utils.NewStartupIfError(err, "Unable to open the database", "driver", dc.Driver)
	}
	// Every connection to an in-memory sqlite database is a different database.
	if strings.Contains(dc.DSN, ":memory:") || strings.Contains(dc.DSN, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, utils.NewStartupIfError(err, "Unable to connect to the database", "driver", dc.Driver, "dsn", dc.DSN)
	}
	utils.Logger.Info("Connected to the database", "driver", dc.Driver)
	return db, nil
}
