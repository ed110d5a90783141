package authz_test

import (
	"testing"

	"approvalflow/internal/authz"
	"approvalflow/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	cases := []struct {
		name string
		role string
		op   authz.Operation
		want bool
	}{
		{"creator creates", model.RoleCreator, authz.OpCreateRequest, true},
		{"creator lists own", model.RoleCreator, authz.OpListOwn, true},
		{"creator views", model.RoleCreator, authz.OpViewRequest, true},
		{"creator cannot list pending", model.RoleCreator, authz.OpListPending, false},
		{"creator cannot list all", model.RoleCreator, authz.OpListAll, false},
		{"creator cannot resolve", model.RoleCreator, authz.OpResolveRequest, false},
		{"approver lists pending", model.RoleApprover, authz.OpListPending, true},
		{"approver lists all", model.RoleApprover, authz.OpListAll, true},
		{"approver views", model.RoleApprover, authz.OpViewRequest, true},
		{"approver resolves", model.RoleApprover, authz.OpResolveRequest, true},
		{"approver cannot create", model.RoleApprover, authz.OpCreateRequest, false},
		{"approver cannot list own", model.RoleApprover, authz.OpListOwn, false},
		{"unknown role denied", "ADMIN", authz.OpViewRequest, false},
		{"unknown operation denied", model.RoleApprover, authz.Operation("requests.delete"), false},
		{"empty role denied", "", authz.OpCreateRequest, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, authz.Can(tc.role, tc.op))
		})
	}
}
