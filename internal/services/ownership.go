package services

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// OwnedResource is any record with a single owning user.
type OwnedResource interface {
	OwnerID() any
}

// AssertOwner fails with ErrNotFound when resource is nil and with ErrForbidden
// when it is owned by someone other than userID. Ids are compared after
// normalization, so 42 and "42" refer to the same owner.
func AssertOwner(resource OwnedResource, userID any) error {
	if isNil(resource) {
		return ErrNotFound
	}
	if !SameID(resource.OwnerID(), userID) {
		return ErrForbidden
	}
	return nil
}

// SameID reports whether a and b denote the same non-empty identifier.
func SameID(a, b any) bool {
	na, nb := normalizeID(a), normalizeID(b)
	return na != "" && na == nb
}

func normalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case *string:
		if id == nil {
			return ""
		}
		return strings.TrimSpace(*id)
	case int:
		return strconv.FormatInt(int64(id), 10)
	case int8:
		return strconv.FormatInt(int64(id), 10)
	case int16:
		return strconv.FormatInt(int64(id), 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint8:
		return strconv.FormatUint(uint64(id), 10)
	case uint16:
		return strconv.FormatUint(uint64(id), 10)
	case uint32:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(r OwnedResource) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
