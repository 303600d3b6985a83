package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// queryErrors collects every bad query parameter so one response can report all of them.
type queryErrors []FieldError

func (q *queryErrors) add(field, rule, message string) {
	*q = append(*q, FieldError{Field: field, Rule: rule, Message: message})
}

func (q queryErrors) details() interface{} {
	return gin.H{"fields": []FieldError(q)}
}

func optionalString(ctx *gin.Context, name string) *string {
	raw, ok := ctx.GetQuery(name)

	if !ok {
		return nil
	}

	raw = strings.TrimSpace(raw)

	if raw == "" {
		return nil
	}

	return &raw
}

// optionalUUID returns the canonical lowercase form, which is how the stores keep ids.
func optionalUUID(ctx *gin.Context, name string, errs *queryErrors) *string {
	raw := optionalString(ctx, name)

	if raw == nil {
		return nil
	}

	id, err := uuid.Parse(*raw)

	if err != nil {
		errs.add(name, "uuid", "must be a valid UUID")
		return nil
	}

	canonical := id.String()

	return &canonical
}

func optionalInt64(ctx *gin.Context, name string, errs *queryErrors) *int64 {
	raw := optionalString(ctx, name)

	if raw == nil {
		return nil
	}

	n, err := strconv.ParseInt(*raw, 10, 64)

	if err != nil {
		errs.add(name, "type", "must be an integer")
		return nil
	}

	return &n
}

func optionalDateTime(ctx *gin.Context, name string, errs *queryErrors) *time.Time {
	raw := optionalString(ctx, name)

	if raw == nil {
		return nil
	}

	t, err := utils.ParseDateTime(*raw)

	if err != nil {
		errs.add(name, "type", "must be a date in the format "+utils.DateTimeFormat)
		return nil
	}

	return &t
}

func pageRequest(ctx *gin.Context, errs *queryErrors) page.Request {
	number, size := 0, page.DefaultSize

	if raw := optionalString(ctx, "page"); raw != nil {
		n, err := strconv.Atoi(*raw)

		if err != nil || n < 0 {
			errs.add("page", "min", "must be a non-negative integer")
		} else {
			number = n
		}
	}

	if raw := optionalString(ctx, "size"); raw != nil {
		n, err := strconv.Atoi(*raw)

		if err != nil || n < 1 || n > page.MaxSize {
			errs.add("size", "range", fmt.Sprintf("must be between 1 and %d", page.MaxSize))
		} else {
			size = n
		}
	}

	return page.New(number, size)
}

type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Count      int `json:"count"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPageResponse[T, U any](p page.Page[T], fn func(T) U) pageResponse[U] {
	mapped := page.Map(p, fn)

	return pageResponse[U]{
		Items:      mapped.Items,
		Count:      len(mapped.Items),
		Page:       mapped.Number,
		Size:       mapped.Size,
		Total:      mapped.Total,
		TotalPages: mapped.TotalPages(),
	}
}
