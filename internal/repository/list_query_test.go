package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause_WhitelistedColumn(t *testing.T) {
	assert.Equal(t, "email", orderClause(userSortWhitelist, "email", "asc", "created_at DESC"))
	assert.Equal(t, "full_name DESC", orderClause(userSortWhitelist, "full_name", "desc", "created_at DESC"))
	assert.Equal(t, "full_name DESC", orderClause(userSortWhitelist, "full_name", "DESC", "created_at DESC"))
}

func TestOrderClause_UnknownColumnFallsBack(t *testing.T) {
	cases := []string{
		"",
		"password",
		"encrypted_password",
		"email; DROP TABLE users",
		"(SELECT recovery_code FROM users LIMIT 1)",
	}
	for _, sortBy := range cases {
		assert.Equal(t, "created_at DESC",
			orderClause(userSortWhitelist, sortBy, "desc", "created_at DESC"),
			"sort_by %q must not reach the ORDER BY clause", sortBy)
	}
}

func TestOrderClause_BAColumnsAreQualified(t *testing.T) {
	assert.Equal(t, "berita_acaras.document_number",
		orderClause(baSortWhitelist, "document_number", "", "berita_acaras.created_at DESC"))
	assert.Equal(t, "berita_acaras.created_at DESC",
		orderClause(baSortWhitelist, "1=1--", "desc", "berita_acaras.created_at DESC"))
}
