// Package navigation opens named application pages by relative path. Paths are passed to
// the page untouched; the browser context's base URL resolves them.
package navigation

// Navigator is anything that can navigate to a URL. driver.Page satisfies it.
type Navigator interface {
	Goto(url string) error
}

// Navigate opens path on nav without rewriting it.
func Navigate(nav Navigator, path string) error {
	return nav.Goto(path)
}

// Application paths, relative to the base URL.
const (
	FreightEditorPath   = "app/tccargo/freights/editor/"
	FreightSearchPath   = "app/tccargo/freights/search/"
	PriceProposalsPath  = "app/tccargo/freights/priceproposals/"
	VehicleEditorPath   = "app/tccargo/vehicles/editor/"
	VehicleSearchPath   = "app/tccargo/vehicles/search/"
	WarehouseEditorPath = "app/tcw/edit"
	WarehouseSearchPath = "app/tcw/search"
	EbidTendersPath     = "app/tcebid/tenders/"
	EbidBidsPath        = "app/tcebid/bids/"
	RouteAndCostsPath   = "app/roco/"

	DealsMyDealsPath       = "app/deals/mydeals/"
	DealsReceivedDealsPath = "app/deals/received-deals"

	OrderMyOrdersPath             = "app/tcorder/?tab=myOrders"
	OrderReceivedOrdersPath       = "app/tcorder/?tab=receivedOrders"
	OrderStatisticsPrincipalPath  = "app/tcorder/statistics/principal"
	OrderStatisticsContractorPath = "app/tcorder/statistics/contractor"

	ShipmentPath              = "app/tcshipment/"
	FleetMyFleetPath          = "app/tcfleet/"
	ShrakPath                 = "app/shrack/"
	ShrakSharedVehiclesPath   = "app/shrack/shared"
	ShrakReceivedVehiclesPath = "app/shrack/received"
	VehicleManagementPath     = "app/tcprofile/edit/devicemanagement"
)

// Route is a named application path.
type Route struct {
	Name string
	Path string
}

// Open navigates nav to the route.
func (r Route) Open(nav Navigator) error {
	return Navigate(nav, r.Path)
}

// Routes lists every named route.
var Routes = []Route{
	{"FREIGHT_EDITOR", FreightEditorPath},
	{"FREIGHT_SEARCH", FreightSearchPath},
	{"PRICEPROPOSAL", PriceProposalsPath},
	{"VEHICLE_EDITOR", VehicleEditorPath},
	{"VEHICLE_SEARCH", VehicleSearchPath},
	{"WAREHOUSE_EDITOR", WarehouseEditorPath},
	{"WAREHOUSE_SEARCH", WarehouseSearchPath},
	{"EBID_TENDERS", EbidTendersPath},
	{"EBID_BIDS", EbidBidsPath},
	{"ROUTE_AND_COSTS", RouteAndCostsPath},
	{"DEALS_MY_DEALS", DealsMyDealsPath},
	{"DEALS_RECEIVED_DEALS", DealsReceivedDealsPath},
	{"ORDER_MY_ORDERS", OrderMyOrdersPath},
	{"ORDER_RECEIVED_ORDERS", OrderReceivedOrdersPath},
	{"ORDER_STATISTICS_PRINCIPAL", OrderStatisticsPrincipalPath},
	{"ORDER_STATISTICS_CONTRACTOR", OrderStatisticsContractorPath},
	{"SHIPMENT", ShipmentPath},
	{"FLEET_MY_FLEET", FleetMyFleetPath},
	{"SHRAK", ShrakPath},
	{"SHRAK_SHARED_VEHICLES", ShrakSharedVehiclesPath},
	{"SHRAK_RECEIVED_VEHICLES", ShrakReceivedVehiclesPath},
	{"VEHICLE_MANAGEMENT", VehicleManagementPath},
}

// Lookup finds a route by name.
func Lookup(name string) (Route, bool) {
	for _, r := range Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// GotoFreightEditor and the Goto helpers below each open one page via Navigate.
// Cargo, warehouse and tender pages.
func GotoFreightEditor(nav Navigator) error   { return Navigate(nav, FreightEditorPath) }
func GotoFreightSearch(nav Navigator) error   { return Navigate(nav, FreightSearchPath) }
func GotoPriceProposals(nav Navigator) error  { return Navigate(nav, PriceProposalsPath) }
func GotoVehicleEditor(nav Navigator) error   { return Navigate(nav, VehicleEditorPath) }
func GotoVehicleSearch(nav Navigator) error   { return Navigate(nav, VehicleSearchPath) }
func GotoWarehouseEditor(nav Navigator) error { return Navigate(nav, WarehouseEditorPath) }
func GotoWarehouseSearch(nav Navigator) error { return Navigate(nav, WarehouseSearchPath) }
func GotoEbidTenders(nav Navigator) error     { return Navigate(nav, EbidTendersPath) }
func GotoEbidBids(nav Navigator) error        { return Navigate(nav, EbidBidsPath) }
func GotoRouteAndCosts(nav Navigator) error   { return Navigate(nav, RouteAndCostsPath) }

// Deal pages.
func GotoDealsMyDeals(nav Navigator) error       { return Navigate(nav, DealsMyDealsPath) }
func GotoDealsReceivedDeals(nav Navigator) error { return Navigate(nav, DealsReceivedDealsPath) }

// Order pages and order statistics.
func GotoOrderMyOrders(nav Navigator) error       { return Navigate(nav, OrderMyOrdersPath) }
func GotoOrderReceivedOrders(nav Navigator) error { return Navigate(nav, OrderReceivedOrdersPath) }
func GotoOrderStatisticsPrincipal(nav Navigator) error {
	return Navigate(nav, OrderStatisticsPrincipalPath)
}
func GotoOrderStatisticsContractor(nav Navigator) error {
	return Navigate(nav, OrderStatisticsContractorPath)
}

// Shipment tracking and fleet pages.
func GotoShipment(nav Navigator) error              { return Navigate(nav, ShipmentPath) }
func GotoFleetMyFleet(nav Navigator) error          { return Navigate(nav, FleetMyFleetPath) }
func GotoShrak(nav Navigator) error                 { return Navigate(nav, ShrakPath) }
func GotoShrakSharedVehicles(nav Navigator) error   { return Navigate(nav, ShrakSharedVehiclesPath) }
func GotoShrakReceivedVehicles(nav Navigator) error { return Navigate(nav, ShrakReceivedVehiclesPath) }
func GotoVehicleManagement(nav Navigator) error     { return Navigate(nav, VehicleManagementPath) }
