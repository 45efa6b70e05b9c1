package core

// Route is a navigation target understood by a Navigator.
type Route string

const (
	RouteHome  Route = "/"
	RouteLead  Route = "/LeadScreen"
	RouteSales Route = "/SalesScreen"
	RouteLogin Route = "/Login"
)

// Roles that have a screen of their own.
const (
	RoleSourcing = "Sourcing"
	RoleLead     = "Lead"
	RoleSales    = "Sales"
)

// FallbackRoute is where users with an unknown role are sent.
const FallbackRoute = RouteLogin

var roleRoutes = map[string]Route{
	RoleSourcing: RouteHome,
	RoleLead:     RouteLead,
	RoleSales:    RouteSales,
}

// Navigator moves the application to a route.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route Route)

func (f NavigatorFunc) Navigate(route Route) { f(route) }

// RouteForRole returns the screen a role lands on after login. Role names
// are case sensitive.
func RouteForRole(role string) Route {
	if route, ok := roleRoutes[role]; ok {
		return route
	}
	return FallbackRoute
}
