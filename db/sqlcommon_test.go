package db

import "testing"

func TestFormatPlaceholders(t *testing.T) {
	q := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"

	if got := formatPlaceholders("sqlite", q); got != q {
		t.Errorf("sqlite should keep ?: %q", got)
	}
	if got := formatPlaceholders("mysql", q); got != q {
		t.Errorf("mysql should keep ?: %q", got)
	}

	want := "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"
	if got := formatPlaceholders("postgres", q); got != want {
		t.Errorf("postgres rewrite = %q, want %q", got, want)
	}
}

func TestAutoincPKPerStyle(t *testing.T) {
	cases := map[string]string{
		"sqlite":   "INTEGER PRIMARY KEY AUTOINCREMENT",
		"mysql":    "INTEGER PRIMARY KEY AUTO_INCREMENT",
		"postgres": "SERIAL PRIMARY KEY",
	}
	for style, want := range cases {
		h := sqlHelper{style: style}
		if got := h.autoincPK(); got != want {
			t.Errorf("autoincPK(%s) = %q, want %q", style, got, want)
		}
	}
}
