package audit

import "strings"

// ActionResource is the audit action/resource pair derived from a gRPC full
// method name.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod maps a gRPC full method name to an audit action and
// resource. Auth lifecycle methods get explicit action names; everything else
// falls back to verb-prefix parsing of the method name.
func ParseFullMethod(fullMethod string) ActionResource {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	switch method {
	case "Login":
		return ActionResource{Action: ActionLoginSuccess, Resource: "session"}
	case "Refresh":
		return ActionResource{Action: ActionTokenRefreshed, Resource: "session"}
	case "Logout":
		return ActionResource{Action: ActionLogout, Resource: "session"}
	}
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	serviceName := beforeSlash[dot+1:]
	return ActionResource{
		Action:   methodToAction(method),
		Resource: serviceToResource(serviceName),
	}
}

func serviceToResource(serviceName string) string {
	// UserService -> user, AuthService -> auth
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Change"):
		return "change"
	case strings.HasPrefix(method, "Revoke"):
		return "revoke"
	default:
		return strings.ToLower(method)
	}
}
