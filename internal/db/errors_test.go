package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_WrapsAndFormats(t *testing.T) {
	e := &Error{Op: OpMatchDocuments, Err: context.DeadlineExceeded}

	if e.Error() != "match_documents: context deadline exceeded" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !errors.Is(e, context.DeadlineExceeded) {
		t.Error("expected errors.Is to see the wrapped error")
	}
}
