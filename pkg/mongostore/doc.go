// Package mongostore implements auth.CredentialStore and an attempt log
// on MongoDB. Call EnsureIndexes once at startup; the unique (type, secret)
// index backs duplicate detection.
package mongostore
