// Package naming provides consistent naming functions for the secondary
// resources of a WebPage.
//
// Workload and network resources share the page name so that selectors and
// DNS names stay predictable; the content ConfigMap carries an -html suffix.
package naming
