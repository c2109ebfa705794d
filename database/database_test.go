package database

import (
	"context"
	"database/sql"
	"testing"
)

// Foreign keys must be enforced on every pooled connection, not only the one
// that served the first statement: the delete cascades depend on it.
func TestOpenEnforcesForeignKeysOnEveryConnection(t *testing.T) {
	db, err := Open("file:database_test_fk?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	conn1, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("first connection: %v", err)
	}
	defer conn1.Close()

	conn2, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("second connection: %v", err)
	}
	defer conn2.Close()

	for i, conn := range []*sql.Conn{conn1, conn2} {
		var on int
		err = conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on)
		if err != nil {
			t.Fatalf("reading pragma on connection %d: %v", i+1, err)
		}
		if on != 1 {
			t.Fatalf("connection %d: foreign_keys = %d, want 1", i+1, on)
		}
	}

	// seed through the first connection
	var ownerID, surveyID, questionID, responseID int
	err = conn1.QueryRowContext(ctx, `
		INSERT INTO user (name, email, password_hash)
		VALUES ('O', 'o@example.com', 'x')
		RETURNING id`).Scan(&ownerID)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	err = conn1.QueryRowContext(ctx, `
		INSERT INTO survey (owner_id, title) VALUES (?, 'S')
		RETURNING id`, ownerID).Scan(&surveyID)
	if err != nil {
		t.Fatalf("seeding survey: %v", err)
	}
	err = conn1.QueryRowContext(ctx, `
		INSERT INTO question (survey_id, type, text) VALUES (?, 'short_text', 'Q')
		RETURNING id`, surveyID).Scan(&questionID)
	if err != nil {
		t.Fatalf("seeding question: %v", err)
	}
	err = conn1.QueryRowContext(ctx, `
		INSERT INTO response (survey_id) VALUES (?)
		RETURNING id`, surveyID).Scan(&responseID)
	if err != nil {
		t.Fatalf("seeding response: %v", err)
	}
	_, err = conn1.ExecContext(ctx, `
		INSERT INTO answer (response_id, question_id, value)
		VALUES (?, ?, '"x"')`, responseID, questionID)
	if err != nil {
		t.Fatalf("seeding answer: %v", err)
	}

	// a dangling reference must be rejected on the second connection
	_, err = conn2.ExecContext(ctx, `
		INSERT INTO answer (response_id, question_id, value)
		VALUES (?, 9999, '"x"')`, responseID)
	if err == nil {
		t.Error("inserting an answer for a nonexistent question succeeded")
	}

	// and deleting through the second connection must cascade
	_, err = conn2.ExecContext(ctx, "DELETE FROM response WHERE id = ?", responseID)
	if err != nil {
		t.Fatalf("deleting response: %v", err)
	}

	var orphans int
	err = conn2.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM answer WHERE response_id = ?", responseID).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting answers: %v", err)
	}
	if orphans != 0 {
		t.Errorf("got %d orphaned answer rows after deleting the response, want 0", orphans)
	}
}

func TestForeignKeysDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ankieta.sqlite", "ankieta.sqlite?_foreign_keys=on"},
		{"file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared&_foreign_keys=on"},
		{"file:x?_foreign_keys=off", "file:x?_foreign_keys=off"},
	}
	for _, tt := range tests {
		if got := foreignKeysDSN(tt.in); got != tt.want {
			t.Errorf("foreignKeysDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
