// Package clock provides the vector clocks tasksync uses to order edits made
// on different platforms. A clock maps a platform id to the number of edits
// that platform has made; comparing two clocks tells whether one edit
// happened before the other or whether they were made concurrently.
//
// Every function in this package treats its arguments as read-only and
// returns fresh clocks, so clocks attached to task versions can be shared
// freely between goroutines.
package clock
