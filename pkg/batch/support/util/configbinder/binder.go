// Package configbinder binds loosely typed property maps (CLI filters, named connection blocks,
// sink properties) to typed structs.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// BindProperties binds a map of properties to a target struct using mapstructure.
// It uses the "yaml" tag for binding and allows weakly typed input (e.g., "30" to int).
func BindProperties(properties map[string]interface{}, target interface{}) error {
	if len(properties) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(properties); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind properties to struct %s: %w", targetType.Name(), err)
	}
	return nil
}

// BindStringProperties is BindProperties for string-valued maps such as "--filter key=value" flags.
func BindStringProperties(properties map[string]string, target interface{}) error {
	intermediate := make(map[string]interface{}, len(properties))
	for k, v := range properties {
		intermediate[k] = v
	}
	return BindProperties(intermediate, target)
}
