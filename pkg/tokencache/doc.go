// Package tokencache persists granted token information across sessions.
//
// Three backends implement session.TokenCache: a bounded in-process LRU
// (Memory), Redis (Redis), and PostgreSQL (SQL). All of them key records by
// application ID and treat a Clear as an irreversible purge of the persisted
// credentials for that application.
//
// Expired records are never returned: Memory and Redis expire them at load
// time or via TTL, and SQL additionally runs a cron-driven sweep.
package tokencache
