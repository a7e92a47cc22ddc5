// Package iam implements account identity for the orbyq API.
//
// It covers three concerns:
//
//   - Service: registration, login and refresh-token rotation, plus the
//     profile and admin operations that manage the credential store.
//   - BearerAuthenticator: per-request verification of access tokens. It is
//     pure and never reads the credential store, so a deleted account keeps
//     working until its access token expires.
//   - Principal: the identity bound to a request after authentication.
//
// Request Flow:
//
//	Request → RequireAuthentication → BearerAuthenticator.Authenticate() → Principal
//	       ↓
//	   Authorize (casbin role check) → handler → resources.Guard (ownership)
//
// Authentication failures carry their internal cause for server-side logging
// only. Clients see the sentinel kind and nothing else.
package iam
