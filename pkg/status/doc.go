// Package status keeps a Redis ledger of fetch outcomes.
//
// The ledger lets other services (the leaderboard web app's backend, a
// dashboard) see when each year was last refreshed and how the last runs
// went without scanning the output directory. It is write-only from the
// fetcher's side: nothing read from it changes what gets fetched.
//
// # Keys
//
//	aoc:leaderboard:<id>:years     hash   year -> JSON Outcome (latest per year)
//	aoc:leaderboard:<id>:saved     hash   year -> JSON Outcome (latest successful)
//	aoc:leaderboard:<id>:last_run  string JSON Summary without per-year outcomes
//	aoc:leaderboard:<id>:runs      list   JSON Summaries, newest first, capped at HistorySize
//
// # Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	rec := status.NewRedisRecorder(redisClient, "3158126", logger)
//	runner, _ := fetch.NewRunner(c, store, cfg, fetch.WithRecorder(rec))
package status
