// Package model holds the domain types hydrated by the mapper package,
// together with the column types that convert them to and from SQL.
package model
