// Package userstore provides user lookups for sso.Resolver.
//
// SQLStore reads users from a relational database (PostgreSQL through lib/pq,
// or SQLite for local runs), MemoryStore holds a fixed set of users, and Cache
// puts an expiring LRU in front of either.
//
// Every store exposes a Lookup method matching sso.UserLookup[*User]:
//
//	store := userstore.NewSQLStore(db, logger)
//	cached := userstore.NewCache(store.Lookup, 1024, time.Minute)
//	flow := sso.NewSessionFlow(provider, cached.Lookup, sso.DefaultConfig())
package userstore
