package middleware

import (
	"testing"

	"github.com/campusgate/campusgate-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeRegistrarBypassesEverything(t *testing.T) {
	p := Principal{UserID: 1, Role: model.RoleRegistrar, SchoolID: 1, DepartmentID: 1}

	// Wrong role set, wrong school, wrong department: registrar still passes
	err := Authorize(p, []string{model.RoleFinance}, ScopeOptions{ScopeSchool: true, ScopeDepartment: true}, 99, 99)
	assert.NoError(t, err)
}

func TestAuthorizeRoleDenied(t *testing.T) {
	p := Principal{UserID: 2, Role: model.RoleStudent, SchoolID: 1}

	err := Authorize(p, []string{model.RoleFinance, model.RoleAdmin}, ScopeOptions{}, 0, 0)
	require.ErrorIs(t, err, ErrRoleNotPermitted)
}

func TestAuthorizeRoleAllowed(t *testing.T) {
	p := Principal{UserID: 3, Role: model.RoleFinance, SchoolID: 5}

	err := Authorize(p, []string{model.RoleFinance, model.RoleAdmin}, ScopeOptions{}, 0, 0)
	assert.NoError(t, err)
}

func TestAuthorizeSchoolScope(t *testing.T) {
	p := Principal{UserID: 4, Role: model.RoleFinance, SchoolID: 5}

	// Same school passes
	assert.NoError(t, Authorize(p, []string{model.RoleFinance}, ScopeOptions{ScopeSchool: true}, 5, 0))

	// Different school is refused even with the right role
	err := Authorize(p, []string{model.RoleFinance}, ScopeOptions{ScopeSchool: true}, 6, 0)
	require.ErrorIs(t, err, ErrScopeRestricted)
}

func TestAuthorizeDepartmentScope(t *testing.T) {
	p := Principal{UserID: 5, Role: model.RoleAdmin, SchoolID: 1, DepartmentID: 10}

	assert.NoError(t, Authorize(p, []string{model.RoleAdmin}, ScopeOptions{ScopeDepartment: true}, 0, 10))

	err := Authorize(p, []string{model.RoleAdmin}, ScopeOptions{ScopeDepartment: true}, 0, 11)
	require.ErrorIs(t, err, ErrScopeRestricted)
}

func TestAuthorizeEmptyRoleListSkipsRoleCheck(t *testing.T) {
	p := Principal{UserID: 6, Role: model.RoleTeacher, SchoolID: 2}

	// No role constraint, only scope
	assert.NoError(t, Authorize(p, nil, ScopeOptions{ScopeSchool: true}, 2, 0))
}
