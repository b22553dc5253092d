package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(UpOrderMetaTable, DownOrderMetaTable)
}

func UpOrderMetaTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE order_meta
(
    order_id UUID NOT NULL REFERENCES orders (id),
    meta_key VARCHAR(255) NOT NULL,
    meta_value TEXT NOT NULL,
    PRIMARY KEY (order_id, meta_key)
);
CREATE INDEX idx_order_meta_lookup ON order_meta (meta_key, meta_value);`)
	return err
}

func DownOrderMetaTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE order_meta;")
	return err
}
