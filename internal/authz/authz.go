// Package authz maps (role, operation) pairs to permit/deny decisions.
// It is a pure lookup with no transport or storage dependencies, so the
// grant table can be tested on its own.
package authz

import "approvalflow/internal/model"

// Operation identifies an action a caller may attempt.
type Operation string

const (
	OpCreateRequest  Operation = "requests.create"
	OpListOwn        Operation = "requests.list_own"
	OpListPending    Operation = "requests.list_pending"
	OpListAll        Operation = "requests.list_all"
	OpViewRequest    Operation = "requests.view"
	OpResolveRequest Operation = "requests.resolve"
)

var grants = map[string]map[Operation]bool{
	model.RoleCreator: {
		OpCreateRequest: true,
		OpListOwn:       true,
		OpViewRequest:   true,
	},
	model.RoleApprover: {
		OpListPending:    true,
		OpListAll:        true,
		OpViewRequest:    true,
		OpResolveRequest: true,
	},
}

// Can reports whether the given role is permitted to perform op.
// Unknown roles and unknown operations are denied.
func Can(role string, op Operation) bool {
	return grants[role][op]
}
