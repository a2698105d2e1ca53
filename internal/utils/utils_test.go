package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskContact(t *testing.T) {
	assert.Equal(t, "al***@example.com", MaskContact("alice@example.com"))
	assert.Equal(t, "a***@example.com", MaskContact("ab@example.com"))
	assert.Equal(t, "***@example.com", MaskContact("@example.com"))
	assert.Equal(t, "******3210", MaskContact("9876543210"))
	assert.Equal(t, "***", MaskContact("123"))
	assert.Equal(t, "", MaskContact("  "))
}

func TestParsePagination(t *testing.T) {
	page, limit := ParsePagination("", "", 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = ParsePagination("3", "50", 20, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)

	page, limit = ParsePagination("-1", "500", 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)
}
