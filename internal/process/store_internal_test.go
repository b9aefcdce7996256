package process

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := errors.New("constraint failed: UNIQUE constraint failed: processes.id (1555)")
	if !isUniqueViolation(fmt.Errorf("create process: %w", unique)) {
		t.Fatal("expected unique violation detected")
	}

	for _, err := range []error{
		nil,
		errors.New("constraint failed: NOT NULL constraint failed: processes.stage (1299)"),
		errors.New("constraint failed: CHECK constraint failed: progress (275)"),
		errors.New("database is locked (5) (SQLITE_BUSY)"),
	} {
		if isUniqueViolation(err) {
			t.Fatalf("unexpected unique violation for %v", err)
		}
	}
}
