package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		name                           string
		user, password, host, database string
		port                           int
		want                           string
	}{
		{
			name: "no password",
			user: "kindred", host: "127.0.0.1", port: 3306, database: "kindred",
			want: "kindred@tcp(127.0.0.1:3306)/kindred?parseTime=true&charset=utf8mb4",
		},
		{
			name: "with password",
			user: "kindred", password: "s3cret", host: "db.internal", port: 3307, database: "kindred_prod",
			want: "kindred:s3cret@tcp(db.internal:3307)/kindred_prod?parseTime=true&charset=utf8mb4",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DSN(c.user, c.password, c.host, c.port, c.database)
			if got != c.want {
				t.Errorf("DSN = %q, want %q", got, c.want)
			}
		})
	}
}

func TestAutoMigrate(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, tbl := range []string{"users", "personas", "conversations", "messages"} {
		if !gdb.Migrator().HasTable(tbl) {
			t.Errorf("table %s not created", tbl)
		}
	}
}
