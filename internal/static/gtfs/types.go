package gtfs

// Feed holds the parts of a GTFS schedule the timetable store keeps
type Feed struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
	Calendars []Calendar
}

// Stop represents a row of stops.txt
type Stop struct {
	StopID   string `csv:"stop_id"`
	StopName string `csv:"stop_name"`
}

// Route represents a row of routes.txt
type Route struct {
	RouteID        string `csv:"route_id"`
	RouteShortName string `csv:"route_short_name"`
	RouteLongName  string `csv:"route_long_name"`
}

// Trip represents a row of trips.txt
type Trip struct {
	TripID       string `csv:"trip_id"`
	RouteID      string `csv:"route_id"`
	ServiceID    string `csv:"service_id"`
	TripHeadsign string `csv:"trip_headsign"`
	DirectionID  int    `csv:"direction_id"`
}

// StopTime represents a row of stop_times.txt
type StopTime struct {
	TripID       string `csv:"trip_id"`
	StopID       string `csv:"stop_id"`
	StopSequence int    `csv:"stop_sequence"`
	ArrivalTime  string `csv:"arrival_time"`
}

// Calendar represents a row of calendar.txt
type Calendar struct {
	ServiceID string `csv:"service_id"`
	Monday    int    `csv:"monday"`
	Tuesday   int    `csv:"tuesday"`
	Wednesday int    `csv:"wednesday"`
	Thursday  int    `csv:"thursday"`
	Friday    int    `csv:"friday"`
	Saturday  int    `csv:"saturday"`
	Sunday    int    `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}
