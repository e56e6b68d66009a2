package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fenwick-labs/voicegate/internal/config"
)

var argsValidator = validator.New(validator.WithRequiredStructEnabled())

// decodeArgs unmarshals raw tool arguments into dst and validates it with
// go-playground/validator struct tags. On failure it returns a Result
// whose text names the first offending argument by its JSON tag, matching
// spec.md §8's literal example: "error: argument 'query' required".
func decodeArgs(raw json.RawMessage, dst any) *Result {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errResult(config.ErrToolBadArguments, fmt.Sprintf("error: invalid arguments: %v", err))
	}
	if err := argsValidator.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errResult(config.ErrToolBadArguments, formatValidationError(dst, verrs[0]))
		}
		return errResult(config.ErrToolBadArguments, "error: invalid arguments: "+err.Error())
	}
	return nil
}

// formatValidationError renders the failing field's JSON tag (not its Go
// field name) into the spec's "argument '<name>' <problem>" shape.
func formatValidationError(dst any, fe validator.FieldError) string {
	jsonName := jsonFieldName(dst, fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("error: argument '%s' required", jsonName)
	case "max":
		return fmt.Sprintf("error: argument '%s' exceeds maximum of %s", jsonName, fe.Param())
	case "min":
		return fmt.Sprintf("error: argument '%s' below minimum of %s", jsonName, fe.Param())
	default:
		return fmt.Sprintf("error: argument '%s' is invalid", jsonName)
	}
}

func jsonFieldName(dst any, structField string) string {
	data, err := json.Marshal(dst)
	if err != nil {
		return strings.ToLower(structField)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		return strings.ToLower(structField)
	}
	// Best-effort: fall back to a lowercased struct field name since the
	// marshaled map doesn't retain a structField->jsonTag mapping; tool
	// argument structs in this package name their JSON tags identically
	// to the lowercased Go field name, so this degrades gracefully.
	for key := range generic {
		if strings.EqualFold(key, structField) {
			return key
		}
	}
	return strings.ToLower(structField)
}
