// Package singletable is a data-access and migration toolkit for a
// DynamoDB single-table layout shared by every entity of a community
// platform: users, circles and their memberships, image assets,
// feedback, incidents, advisory reviews, premium sources and
// personalization profiles.
//
// The module is layered bottom-up:
//
//  1. entity: the persisted structs, the key builders that own the
//     PK/SK and GSI naming conventions, and the canonical ISO-8601
//     timestamp format.
//
//  2. validate: a three-layer validation engine (structural key
//     attributes, timestamp consistency, per-entity field rules) that
//     gates every write. Errors block; warnings are logged.
//
//  3. dynstore: a thin, instrumented DynamoDB client owning expression
//     building, batch chunking, client-side transaction limits, error
//     normalization and operational metrics.
//
//  4. dao: the generic Base DAO (conditional creates, optimistic
//     locking, typed patches) and the per-entity DAOs with their index
//     access patterns, wired together by the Factory.
//
//  5. migrate: a batch engine that moves relational data (SQLite or
//     PostgreSQL) into the table through an extract, transform,
//     validate, load cycle with progress reporting and dry runs.
//
// Configuration is YAML with environment overrides (pkg/config,
// envloader); logging is zerolog (pkg/logger); metrics flow to statsd
// when enabled. The cmd/toolkit command exposes health checks, source
// analysis and migrations; examples/users shows the factory wired
// against DynamoDB Local.
package singletable
