// Package labels provides consistent labeling for WebPage secondaries.
//
// Every secondary carries the plain app label used by pod selectors plus
// webpage.k8zner.io prefixed labels identifying the owning page and the
// managing operator.
package labels
