// Package naming derives Kubernetes-compatible names from cluster anchors.
// Downstream consumers use an entry's anchor as a namespace or schema name,
// which requires RFC 1123 sanitization, collapsing, and truncation.
package naming
