package httpx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request structs against their validate tags.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// ValidationFields flattens validator errors into field -> rule messages. Keys use
// the lower-cased struct field name.
func ValidationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name != "" {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		if fe.Param() != "" {
			fields[name] = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
			continue
		}
		fields[name] = "failed " + fe.Tag()
	}
	return fields
}
