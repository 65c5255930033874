package loggers

// Method is the name of a logging capability, such as "warn".
type Method string

// Base method names recognized by every registry.
const (
	MethodLog   Method = "log"
	MethodDebug Method = "debug"
	MethodInfo  Method = "info"
	MethodWarn  Method = "warn"
	MethodError Method = "error"
	MethodFatal Method = "fatal"
)

// Extended method names a registry may opt into with WithMethods.
const (
	MethodSilly   Method = "silly"
	MethodVerbose Method = "verbose"
)

// BaseMethods returns the default ordered method set.
func BaseMethods() []Method {
	return []Method{MethodLog, MethodDebug, MethodInfo, MethodWarn, MethodError, MethodFatal}
}

// ExtendedMethods returns the base method set followed by silly and verbose.
func ExtendedMethods() []Method {
	return append(BaseMethods(), MethodSilly, MethodVerbose)
}

// ParseMethods converts raw names into an ordered, de-duplicated method list.
// Empty names are skipped.
func ParseMethods(names []string) []Method {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		methods = append(methods, Method(name))
	}
	return normalizeMethods(methods)
}

func normalizeMethods(methods []Method) []Method {
	seen := make(map[Method]struct{}, len(methods))
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
