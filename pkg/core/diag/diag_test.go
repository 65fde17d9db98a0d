package diag_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/agenthands/nlogo/pkg/core/diag"
)

func TestErrorFormatting(t *testing.T) {
	tagged := diag.Errorf(diag.KindSyntax, 3, "I don't know the command %q", "JUMP")
	if got := tagged.Error(); got != `Line 3: I don't know the command "JUMP"` {
		t.Errorf("unexpected message: %s", got)
	}

	untagged := diag.Errorf(diag.KindStructure, 0, "Missing ']'")
	if got := untagged.Error(); got != "Missing ']'" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		kind diag.Kind
		want error
	}{
		{diag.KindStructure, diag.ErrStructure},
		{diag.KindSyntax, diag.ErrSyntax},
		{diag.KindValue, diag.ErrValue},
		{diag.KindRecursionLimit, diag.ErrRecursionLimit},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", diag.Errorf(tt.kind, 1, "x"))
		if !errors.Is(err, tt.want) {
			t.Errorf("kind %d: expected errors.Is(%v)", tt.kind, tt.want)
		}
	}
}

func TestWithLineKeepsInnermost(t *testing.T) {
	inner := diag.Errorf(diag.KindValue, 7, "inner")
	if got := diag.WithLine(inner, 2); diag.LineOf(got) != 7 {
		t.Errorf("expected line 7 to survive, got %d", diag.LineOf(got))
	}

	untagged := diag.Errorf(diag.KindValue, 0, "untagged")
	got := diag.WithLine(untagged, 4)
	if diag.LineOf(got) != 4 {
		t.Errorf("expected line 4, got %d", diag.LineOf(got))
	}
	if untagged.Line != 0 {
		t.Errorf("WithLine must not mutate its input")
	}
	if !errors.Is(got, diag.ErrValue) {
		t.Errorf("class lost while tagging")
	}

	plain := diag.WithLine(errors.New("boom"), 5)
	if plain.Error() != "Line 5: boom" {
		t.Errorf("unexpected plain tagging: %v", plain)
	}

	if diag.WithLine(nil, 3) != nil {
		t.Errorf("nil must stay nil")
	}
}
