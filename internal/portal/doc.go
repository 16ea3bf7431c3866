// Package portal talks to the Echo360 lecture portal.
//
// A Client owns one cookie-backed session. It can log in through the portal's
// HTML login form or adopt cookies from a local browser, and lists a course's
// recordings from the syllabus endpoint. The fetch package reuses the
// session's cookie jar to download media.
package portal
