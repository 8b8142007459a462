package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Allowed sort fields per table. Keys are column names.

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"first_name":    true,
	"last_name":     true,
	"status":        true,
	"last_login_at": true,
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"schema_name": true,
	"name":        true,
	"domain_url":  true,
	"status":      true,
	"paid_until":  true,
}

// SalesPersonSortFields contains allowed sort fields for sales people
var SalesPersonSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"first_name":  true,
	"second_name": true,
	"division":    true,
	"role":        true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"first_name":  true,
	"second_name": true,
	"company":     true,
	"position":    true,
	"email":       true,
	"birth_date":  true,
	"status":      true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"sku":         true,
	"description": true,
	"price":       true,
}

// DealSortFields contains allowed sort fields for deals
var DealSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"ident":      true,
	"price":      true,
	"status":     true,
	"deal_date":  true,
	"deal_time":  true,
}

// TodoSortFields contains allowed sort fields for todos
var TodoSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"due_at":     true,
	"action":     true,
	"done":       true,
}

// orderClause builds a safe ORDER BY clause from a filter
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}
