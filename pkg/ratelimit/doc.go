// Package ratelimit provides token-bucket throttling for credential obtain
// launches, so bulk bootstraps do not trip the request limits of cloud
// credential issuers.
package ratelimit
