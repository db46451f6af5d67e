package logger

import "testing"

func TestNew(t *testing.T) {
	modes := []string{"development", "production", "prod", ""}
	for _, mode := range modes {
		t.Run("mode "+mode, func(t *testing.T) {
			log, err := New(mode)
			if err != nil {
				t.Fatalf("New(%q): %v", mode, err)
			}
			if log.SugaredLogger == nil {
				t.Fatalf("New(%q) returned a logger without a backing sugared logger", mode)
			}
		})
	}
}

func TestWithDerivesNewLogger(t *testing.T) {
	log, err := New("development")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := log.With("service", "TestService")
	if child == log {
		t.Fatalf("With must return a derived logger, not the receiver")
	}
	if child.SugaredLogger == nil {
		t.Fatalf("derived logger has no backing sugared logger")
	}
}
