package middleware

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

var (
	// ErrRoleNotPermitted means the principal's role is not in the allowed set.
	ErrRoleNotPermitted = errors.New("role not permitted")
	// ErrScopeRestricted means the principal belongs to a different tenant
	// than the one addressed by the request.
	ErrScopeRestricted = errors.New("access restricted to your scope")
)

// Principal is the authenticated caller. It is built once from verified
// claims and passed explicitly; nothing in the engine reads ambient state.
type Principal struct {
	UserID       uint
	Role         string
	UniversityID uint
	SchoolID     uint
	DepartmentID uint
}

// ScopeOptions declares per-endpoint tenant constraints. When ScopeSchool is
// set, the principal's school must match the school addressed by the request;
// likewise for ScopeDepartment.
type ScopeOptions struct {
	ScopeSchool     bool
	ScopeDepartment bool
}

// Authorize is the capability check gating every mutating engine operation.
// The registrar role bypasses all checks. scopedSchoolID/scopedDepartmentID
// identify the tenant the request acts on (0 when not applicable).
func Authorize(p Principal, roles []string, opts ScopeOptions, scopedSchoolID, scopedDepartmentID uint) error {
	if p.Role == model.RoleRegistrar {
		return nil
	}

	if len(roles) > 0 {
		allowed := false
		for _, r := range roles {
			if p.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrRoleNotPermitted, p.Role)
		}
	}

	if opts.ScopeSchool && p.SchoolID != scopedSchoolID {
		return fmt.Errorf("%w: school", ErrScopeRestricted)
	}

	if opts.ScopeDepartment && p.DepartmentID != scopedDepartmentID {
		return fmt.Errorf("%w: department", ErrScopeRestricted)
	}

	return nil
}

// GetPrincipal extracts the Principal stored by the auth middleware.
func GetPrincipal(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals("principal").(Principal)
	return p, ok
}

// RequireRoles wraps Authorize as route middleware. Scope IDs are taken from
// the :school_id / :department_id path params when the matching option is set.
func RequireRoles(roles []string, opts ScopeOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return response.Unauthorized(c, "User not authenticated")
		}

		var schoolID, departmentID uint
		if opts.ScopeSchool {
			id, err := strconv.ParseUint(c.Params("school_id"), 10, 64)
			if err != nil {
				return response.BadRequest(c, "Invalid school id")
			}
			schoolID = uint(id)
		}
		if opts.ScopeDepartment {
			id, err := strconv.ParseUint(c.Params("department_id"), 10, 64)
			if err != nil {
				return response.BadRequest(c, "Invalid department id")
			}
			departmentID = uint(id)
		}

		if err := Authorize(p, roles, opts, schoolID, departmentID); err != nil {
			if errors.Is(err, ErrScopeRestricted) {
				return response.Forbidden(c, "Access restricted to your scope")
			}
			return response.Forbidden(c, "Role not permitted")
		}

		return c.Next()
	}
}
