// Package catalog is the read side of the gym's reference data: membership
// plans and the member directory.
//
// The lifecycle engine never writes here. Plans are maintained by seeding
// (see LoadPlansYAML and Seed) and members by the front-desk application;
// both are exposed through the PlanSource and MemberDirectory interfaces so
// the engine can run against Postgres in production and Memory in tests.
//
// Plan lookups sit on the hot path of every enrollment and listing, so
// NewCachedPlans wraps any PlanSource with either an in-process expirable LRU
// or a Redis JSON cache:
//
//	src := catalog.NewPostgres(pool)
//	plans := catalog.NewCachedPlans(src, catalog.NewLRUCache(256, 10*time.Minute))
//
// Members are never cached: activity flags and contact details must be read
// fresh inside the transaction that enrolls them.
package catalog
