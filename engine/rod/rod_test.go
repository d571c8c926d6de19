package rod

import (
	"errors"
	"fmt"
	"testing"

	rodlib "github.com/go-rod/rod"

	"github.com/gridwalk/gridwalk"
)

func TestNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bare", &rodlib.ElementNotFoundError{}, true},
		{"wrapped", fmt.Errorf("element //missing: %w", &rodlib.ElementNotFoundError{}), true},
		{"fault", errors.New("websocket closed"), false},
	}
	for _, tc := range tests {
		if got := notFound(tc.err); got != tc.want {
			t.Errorf("%s: notFound(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}

func TestForeignRefRejected(t *testing.T) {
	e := &Engine{}
	if _, err := e.Text("bogus"); !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Errorf("Text(foreign ref) returned %v, want ErrInvalidArgument", err)
	}
	if err := e.Click(42); !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Errorf("Click(foreign ref) returned %v, want ErrInvalidArgument", err)
	}
}
