// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents a connection that has not run a transaction yet.
const HealthUnknown uint16 = 0

// HealthOK represents a connection whose last transaction succeeded.
const HealthOK uint16 = 1

// HealthError represents a connection whose last transaction failed.
const HealthError uint16 = 2

// HealthOffline represents a connection that exhausted its connect retries.
const HealthOffline uint16 = 3

// ---- ERROR CODES ----

// CodeGeneric is reported for errors that expose no code of their own.
const CodeGeneric uint16 = 1

// CounterMax caps counters so they never wrap.
const CounterMax = 65535
