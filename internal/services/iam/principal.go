package iam

import "github.com/KshitijThareja/Orbyq/internal/auth"

// Principal is the identity bound to an authenticated request. It is built
// purely from access-token claims: Email is the subject, Roles the role claims
// embedded at issuance.
type Principal = auth.AuthenticatedPrincipal
