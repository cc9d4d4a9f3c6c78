package compose

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/junioryono/compose/internal/reflection"
)

// InjectFields marks a struct for member injection when embedded
// anonymously. Only fields tagged `inject` are written, after construction
// and before Initialize:
//
//	type Repository struct {
//	    compose.InjectFields
//
//	    Logger *Logger `inject:""`                  // written directly
//	    cache  Cache   `inject:"setter=SetCache"`   // written through SetCache
//	    clock  Clock                                // ignored
//	}
//
// An unexported field can only be injected through a setter; tagging it
// without one fails the bind with ReadonlyInjectionError.
type InjectFields = reflection.InjectFields

// assignment is one resolved member write.
type assignment struct {
	member reflection.Member
	setter reflect.Value
	value  reflect.Value
}

// injectMembers writes every tagged member of instance. All members are
// checked and resolved before the first write, so a failure leaves the
// instance untouched.
func (c *Container) injectMembers(key reflect.Type, instance any) error {
	target := reflect.ValueOf(instance)
	if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Struct {
		return ValidationError{ServiceType: key, Cause: ErrNotInjectable}
	}

	owner := target.Elem().Type()

	plan, err := c.analyzer.Plan(owner)
	if err != nil {
		return ValidationError{ServiceType: key, Cause: err}
	}

	assignments := make([]assignment, len(plan.Members))
	for i, member := range plan.Members {
		a := assignment{member: member}

		if member.Setter == "" {
			if !member.Exported {
				return ReadonlyInjectionError{ServiceType: owner, Member: member.Name}
			}
		} else {
			a.setter = target.MethodByName(member.Setter)
			if !isSetterFor(a.setter, member.Type) {
				return NoSetterInjectionError{ServiceType: owner, Member: member.Name, Setter: member.Setter}
			}
		}

		assignments[i] = a
	}

	for i, a := range assignments {
		s, ok := c.slots[a.member.Type]
		if !ok {
			return MissingDependencyError{
				Requester:  owner,
				Member:     a.member.Name,
				Dependency: a.member.Type,
				Available:  c.Keys(),
			}
		}
		assignments[i].value = valueAs(a.member.Type, s.instance)
	}

	for _, a := range assignments {
		if a.setter.IsValid() {
			a.setter.Call([]reflect.Value{a.value})
		} else {
			target.Elem().Field(a.member.Index).Set(a.value)
		}
	}

	c.logger.Debug("injected members",
		zap.Stringer("type", key),
		zap.Int("members", len(assignments)),
	)

	return nil
}

// isSetterFor reports whether method takes exactly one argument that a value
// of memberType can be passed as, and returns nothing.
func isSetterFor(method reflect.Value, memberType reflect.Type) bool {
	if !method.IsValid() {
		return false
	}

	t := method.Type()
	return t.NumIn() == 1 && t.NumOut() == 0 && !t.IsVariadic() && memberType.AssignableTo(t.In(0))
}
