// Package models contains the GORM persistence models of the CRM tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// entity with ToDomain and FromDomain.
//
//   - base.go: shared columns (id, timestamps, version, tenant)
//   - identity.go: tenants and users
//   - crm.go: sales people, customers, products, deals with their lines and
//     status history, todos
package models
