package middleware

import (
	"errors"
	"net/url"
	"strconv"

	"campus-portal/internal/domain"
	"campus-portal/internal/service"
	"campus-portal/internal/table"
	"campus-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const listQueryKey = "validated_list_query"

// listParams are consumed by ValidateListQuery; every other query parameter
// is passed to the backend as a filter.
var listParams = map[string]bool{"sort_by": true, "sort_order": true, "page": true, "limit": true}

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.Default(),
	}
}

func idKey(param string) string { return "validated_" + param }

// ValidateID checks that the named path parameters are positive integers and
// stores them for IDParam.
func (vm *ValidationMiddleware) ValidateID(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var errs domain.ValidationErrors
		for _, p := range params {
			raw := c.Params(p)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs = append(errs, domain.NewInvalidFormatError(p, raw))
				continue
			}
			if verr := vm.validator.Var(p, id, "gt=0"); verr != nil {
				errs = appendValidation(errs, verr)
				continue
			}
			c.Locals(idKey(p), id)
		}
		if len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidateListQuery validates sort_by, sort_order, page and limit.
func (vm *ValidationMiddleware) ValidateListQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var errs domain.ValidationErrors
		q := service.ListQuery{Page: 1, Limit: table.DefaultLimit}

		if v := c.Query("page"); v != "" {
			page, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, domain.NewInvalidFormatError("page", v))
			} else if verr := vm.validator.Var("page", page, "gte=1"); verr != nil {
				errs = appendValidation(errs, verr)
			} else {
				q.Page = page
			}
		}
		if v := c.Query("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, domain.NewInvalidFormatError("limit", v))
			} else if limit < 1 || limit > table.MaxLimit {
				errs = append(errs, domain.NewOutOfRangeError("limit", limit, 1, table.MaxLimit))
			} else {
				q.Limit = limit
			}
		}
		sort, err := table.ParseSort(c.Query("sort_by"), c.Query("sort_order"))
		if err != nil {
			errs = append(errs, domain.NewInvalidFormatError("sort_order", c.Query("sort_order")))
		}
		q.Sort = sort
		if len(errs) > 0 {
			return errs
		}

		filters := url.Values{}
		c.Context().QueryArgs().VisitAll(func(k, v []byte) {
			key := string(k)
			if !listParams[key] {
				filters.Add(key, string(v))
			}
		})
		if len(filters) > 0 {
			q.Filters = filters
		}

		c.Locals(listQueryKey, q)
		return c.Next()
	}
}

func appendValidation(errs domain.ValidationErrors, err error) domain.ValidationErrors {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return append(errs, verrs...)
	}
	return append(errs, domain.ValidationError{Code: domain.CodeValidation, Message: err.Error()})
}

// IDParam returns a path parameter validated by ValidateID.
func IDParam(c *fiber.Ctx, param string) int64 {
	id, _ := c.Locals(idKey(param)).(int64)
	return id
}

// ListQueryFrom returns the query validated by ValidateListQuery.
func ListQueryFrom(c *fiber.Ctx) service.ListQuery {
	q, ok := c.Locals(listQueryKey).(service.ListQuery)
	if !ok {
		return service.ListQuery{Page: 1, Limit: table.DefaultLimit}
	}
	return q
}
