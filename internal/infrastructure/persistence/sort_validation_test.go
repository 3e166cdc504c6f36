package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercase asc", "ASC", "ASC"},
		{"lowercase asc", "asc", "ASC"},
		{"mixed case asc", "AsC", "ASC"},
		{"asc with spaces", "  asc  ", "ASC"},
		{"uppercase desc", "DESC", "DESC"},
		{"lowercase desc", "desc", "DESC"},
		{"empty defaults to desc", "", "DESC"},
		{"garbage defaults to desc", "ascending; DROP TABLE payments", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"allowed field", "planned_date", "planned_date"},
		{"allowed field with spaces", "  sequence  ", "sequence"},
		{"empty defaults", "", "created_at"},
		{"unknown field defaults", "secret_column", "created_at"},
		{"injection attempt defaults", "created_at; DROP TABLE payments", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, PaymentSortFields, "created_at"))
		})
	}
}

func TestPaymentSortFields(t *testing.T) {
	for _, field := range []string{"id", "created_at", "policy_id", "sequence", "status", "net_total"} {
		assert.True(t, PaymentSortFields[field], field)
	}
	assert.False(t, PaymentSortFields["history"])
}
