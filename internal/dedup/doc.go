// Package dedup removes records that describe the same event under different
// stable identities. Records are grouped by folded title, folded location,
// and exact date; the smallest id in each group survives.
package dedup
