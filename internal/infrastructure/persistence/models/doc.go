// Package models contains the GORM persistence models for payables.
// Domain types stay free of ORM tags; each model carries its own
// ToDomain/FromDomain mapping.
package models
