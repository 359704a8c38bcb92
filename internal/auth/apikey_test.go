package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIKeyCreateAndValidate(t *testing.T) {
	store := testAPIKeyStore(t)

	rawKey, key, err := store.Create("Laptop", "Editor@Example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(rawKey, "pl_") {
		t.Errorf("raw key %q missing pl_ prefix", rawKey)
	}
	if key.Name != "Laptop" {
		t.Errorf("name = %q, want %q", key.Name, "Laptop")
	}
	if key.Email != "editor@example.com" {
		t.Errorf("email = %q, want lowercased", key.Email)
	}
	if key.KeyPrefix != rawKey[:8] {
		t.Errorf("prefix = %q, want %q", key.KeyPrefix, rawKey[:8])
	}

	email, err := store.Validate(rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "editor@example.com" {
		t.Errorf("validate email = %q, want editor@example.com", email)
	}
}

func TestAPIKeyCreateRequiresEmail(t *testing.T) {
	store := testAPIKeyStore(t)

	if _, _, err := store.Create("Laptop", "  "); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestAPIKeyValidateInvalid(t *testing.T) {
	store := testAPIKeyStore(t)

	email, err := store.Validate("pl_boguskey12345678")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "" {
		t.Error("expected invalid key")
	}
}

func TestAPIKeyListAndLastUsed(t *testing.T) {
	store := testAPIKeyStore(t)

	raw, _, err := store.Create("Key 1", "a@example.com")
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, _, err := store.Create("Key 2", "b@example.com"); err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if _, err := store.Validate(raw); err != nil {
		t.Fatalf("validate: %v", err)
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len = %d, want 2", len(keys))
	}
	if keys[0].Name != "Key 2" {
		t.Errorf("first = %q, want newest first", keys[0].Name)
	}
	if keys[1].LastUsedAt == nil {
		t.Error("expected last_used_at set after validate")
	}
	if keys[0].LastUsedAt != nil {
		t.Error("expected unused key to have no last_used_at")
	}
}

func TestAPIKeyDelete(t *testing.T) {
	store := testAPIKeyStore(t)

	raw, key, err := store.Create("Key", "a@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(key.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	email, err := store.Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "" {
		t.Error("expected deleted key to be invalid")
	}

	if err := store.Delete(key.ID); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func testAPIKeyStore(t *testing.T) *APIKeyStore {
	t.Helper()
	return NewAPIKeyStore(openTestDB(t))
}
