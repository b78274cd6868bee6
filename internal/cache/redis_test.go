package cache

import (
	"testing"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"status"},
		},
		{
			name:  "multiple parts",
			parts: []string{"status", "counts", "v1"},
		},
		{
			name:  "empty parts",
			parts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed1 := HashKey(tt.parts...)
			hashed2 := HashKey(tt.parts...)

			// Hash should be consistent
			if hashed1 != hashed2 {
				t.Errorf("HashKey() should be consistent, got %s and %s", hashed1, hashed2)
			}

			// Hash should be 32 characters (MD5 hex)
			if len(hashed1) != 32 {
				t.Errorf("HashKey() should return 32 character hex string, got length %d", len(hashed1))
			}
		})
	}

	// Distinct inputs should not collide on ordinary keys
	if HashKey("a", "b") == HashKey("b", "a") {
		t.Error("HashKey() should be order sensitive")
	}
}

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "status",
			expected: "likekeeper:status",
		},
		{
			name:     "key with colon",
			key:      "status:counts",
			expected: "likekeeper:status:counts",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "likekeeper:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cache.namespaceKey(tt.key)
			if result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	if _, err := c.Get("status"); err != ErrCacheDisabled {
		t.Errorf("Get on nil cache should return ErrCacheDisabled, got %v", err)
	}
	if err := c.Set("status", "x", 0); err != ErrCacheDisabled {
		t.Errorf("Set on nil cache should return ErrCacheDisabled, got %v", err)
	}
	if err := c.GetJSON("status", &map[string]int{}); err != ErrCacheDisabled {
		t.Errorf("GetJSON on nil cache should return ErrCacheDisabled, got %v", err)
	}
	if err := c.SetJSON("status", map[string]int{"a": 1}, 0); err != ErrCacheDisabled {
		t.Errorf("SetJSON on nil cache should return ErrCacheDisabled, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil cache should be a no-op, got %v", err)
	}
}
