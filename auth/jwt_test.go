package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGenerateValidate(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(Identity{UserID: "u1", Name: "Ravi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	id, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if id.UserID != "u1" || id.Name != "Ravi" {
		t.Errorf("identity = %+v", id)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)
	expired := NewJWTManager("test-secret", -time.Minute)

	foreign, _ := other.Generate(Identity{UserID: "u1"})
	old, _ := expired.Generate(Identity{UserID: "u1"})

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestContextIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "u9"})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != "u9" {
		t.Errorf("FromContext = %+v, %v", id, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}
}
