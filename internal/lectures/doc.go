// Package lectures holds the lecture record shared by the catalog, fetcher,
// and orchestrator, plus the inclusive calendar-day range filter applied to
// catalog listings.
package lectures
