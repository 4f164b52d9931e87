//go:build duel_debug

package duel

import (
	"fmt"
	"reflect"
)

func missingComponent(id EntityID, t reflect.Type) {
	panic(fmt.Sprintf("entity %s has no %s component", id, t.Name()))
}
