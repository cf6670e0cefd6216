// Package planning holds the scheduling and accounting rules for projects: task
// dependencies, progress roll-up, the capacity allocation ledger, time-entry
// validation and budget roll-up. Functions here are pure; services load rows,
// call into this package and persist the outcome.
package planning
